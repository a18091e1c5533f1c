package court

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateRotatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-old", body["refreshToken"])

		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "at",
			"refreshToken": "rt-new",
			"userId":       "u1",
			"expiresAt":    "2026-09-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	auth, err := c.Authenticate(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at", auth.AccessToken)
	assert.Equal(t, "rt-new", auth.RefreshToken)
	assert.Equal(t, "u1", auth.UserID)
	assert.False(t, auth.ExpiresAt.IsZero())
}

func TestAuthenticateRejectedIsBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.Authenticate(context.Background(), "rt-stale")

	var be *BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "invalid_credentials", be.Kind)
	assert.Equal(t, "token expired", be.Message)
}

func TestCreateReservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reservations", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "slot-9", body["timeSlotId"])
		assert.Equal(t, "2026-09-10", body["date"])

		json.NewEncoder(w).Encode(map[string]string{"reservationId": "res-42"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	id, err := c.CreateReservation(context.Background(), "at", Request{
		SlotExternalID: "slot-9",
		Date:           time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Hour:           19,
		UserID:         "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "res-42", id)
}

func TestCreateReservationConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"message": "slot taken", "hour": 19})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.CreateReservation(context.Background(), "at", Request{SlotExternalID: "slot-9"})

	var be *BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "slot_unavailable", be.Kind)
	assert.Equal(t, "slot taken", be.Message)
	assert.Equal(t, float64(19), be.Details["hour"])
}

func TestCreateReservationServerErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.CreateReservation(context.Background(), "at", Request{SlotExternalID: "slot-9"})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	var be *BusinessError
	assert.False(t, errors.As(err, &be))
}
