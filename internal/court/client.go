package court

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal court-booking API client. Authentication is refresh
// token based: every Authenticate call rotates the token, so callers must
// persist the returned RefreshToken before booking.
type Client struct {
	hc   *http.Client
	base string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		hc:   &http.Client{Timeout: timeout},
		base: baseURL,
	}
}

type Auth struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

type Request struct {
	SlotExternalID string
	Date           time.Time
	Hour           int
	UserID         string
}

// BusinessError is a rejection by the booking service itself: the call
// reached the service and it said no (slot taken, policy, bad credentials).
type BusinessError struct {
	Kind    string // e.g. "slot_unavailable", "rejected", "invalid_credentials"
	Message string
	Details map[string]any
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("court api: %s: %s", e.Kind, e.Message)
}

// TransportError wraps network failures and malformed responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("court api: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func (c *Client) Authenticate(ctx context.Context, refreshToken string) (Auth, error) {
	body, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	status, respBody, err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body)
	if err != nil {
		return Auth{}, &TransportError{Op: "authenticate", Err: err}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Auth{}, &BusinessError{
			Kind:    "invalid_credentials",
			Message: apiMessage(respBody, "refresh token rejected"),
		}
	}
	if status < 200 || status >= 300 {
		return Auth{}, &TransportError{Op: "authenticate", Err: fmt.Errorf("unexpected status %d", status)}
	}

	var parsed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		UserID       string `json:"userId"`
		ExpiresAt    string `json:"expiresAt"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Auth{}, &TransportError{Op: "authenticate parse", Err: err}
	}
	if parsed.AccessToken == "" || parsed.RefreshToken == "" {
		return Auth{}, &TransportError{Op: "authenticate parse", Err: fmt.Errorf("response missing tokens")}
	}

	auth := Auth{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		UserID:       parsed.UserID,
	}
	if parsed.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, parsed.ExpiresAt); err == nil {
			auth.ExpiresAt = t
		}
	}
	return auth, nil
}

// CreateReservation books a slot. Failures come back as *BusinessError when
// the service rejected the booking and *TransportError otherwise.
func (c *Client) CreateReservation(ctx context.Context, accessToken string, req Request) (string, error) {
	payload := map[string]any{
		"timeSlotId": req.SlotExternalID,
		"date":       req.Date.Format("2006-01-02"),
		"hour":       req.Hour,
		"userId":     req.UserID,
	}
	body, _ := json.Marshal(payload)

	status, respBody, err := c.do(ctx, http.MethodPost, "/reservations", accessToken, body)
	if err != nil {
		return "", &TransportError{Op: "create reservation", Err: err}
	}
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		return "", &BusinessError{
			Kind:    "slot_unavailable",
			Message: apiMessage(respBody, "slot unavailable"),
			Details: apiDetails(respBody),
		}
	}
	if status >= 400 && status < 500 {
		return "", &BusinessError{
			Kind:    "rejected",
			Message: apiMessage(respBody, fmt.Sprintf("booking rejected (status=%d)", status)),
			Details: apiDetails(respBody),
		}
	}
	if status < 200 || status >= 300 {
		return "", &TransportError{Op: "create reservation", Err: fmt.Errorf("unexpected status %d", status)}
	}

	var parsed struct {
		ReservationID string `json:"reservationId"`
		ID            string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &TransportError{Op: "create reservation parse", Err: err}
	}
	id := parsed.ReservationID
	if id == "" {
		id = parsed.ID
	}
	if id == "" {
		return "", &TransportError{Op: "create reservation parse", Err: fmt.Errorf("response missing reservation id")}
	}
	return id, nil
}

func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	if status >= 400 {
		return &TransportError{Op: "ping", Err: fmt.Errorf("status %d", status)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("content-type", "application/json")
	if bearer != "" {
		req.Header.Set("authorization", "Bearer "+bearer)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

func apiMessage(body []byte, fallback string) string {
	var r struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &r)
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return r.Error
	}
	return fallback
}

func apiDetails(body []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return m
}
