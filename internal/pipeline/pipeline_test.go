package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/court"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSchedules struct {
	sched Schedule
	err   error
}

func (s stubSchedules) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	return s.sched, s.err
}

type stubTokens struct {
	token  string
	getErr error
	setErr error
	setTo  string
}

func (s *stubTokens) GetToken(ctx context.Context) (string, error) { return s.token, s.getErr }
func (s *stubTokens) SetToken(ctx context.Context, t string) error {
	s.setTo = t
	return s.setErr
}

type stubClient struct {
	authErr error
	auth    court.Auth
	bookErr error
	bookID  string
}

func (s stubClient) Authenticate(ctx context.Context, rt string) (court.Auth, error) {
	if s.authErr != nil {
		return court.Auth{}, s.authErr
	}
	return s.auth, nil
}

func (s stubClient) CreateReservation(ctx context.Context, tok string, req court.Request) (string, error) {
	if s.bookErr != nil {
		return "", s.bookErr
	}
	return s.bookID, nil
}

func happyPipeline() (*Pipeline, *stubTokens) {
	tokens := &stubTokens{token: "rt-old"}
	return &Pipeline{
		Schedules: stubSchedules{sched: Schedule{ID: "s1", Name: "friday padel", SlotHour: 19, ReservationDay: time.Friday}},
		Tokens:    tokens,
		Client: stubClient{
			auth:   court.Auth{AccessToken: "at", RefreshToken: "rt-new", UserID: "u1"},
			bookID: "res-42",
		},
	}, tokens
}

func TestRunSuccess(t *testing.T) {
	p, tokens := happyPipeline()
	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})

	require.True(t, res.Success)
	assert.Empty(t, res.Step)
	assert.Empty(t, res.Error)
	assert.Equal(t, "res-42", res.Data["reservationId"])
	assert.Equal(t, "rt-new", tokens.setTo)

	want := []string{
		flow.StepParsingPayload,
		flow.StepGettingSchedule,
		flow.StepGettingRefreshToken,
		flow.StepAuthenticating,
		flow.StepUpdatingRefreshToken,
		flow.StepMakingReservation,
		flow.StepProcessingResponse,
		flow.StepSuccess,
	}
	assert.Equal(t, want, res.LogStepIDs())
}

func TestRunAuthFailureStopsAtStep(t *testing.T) {
	p, _ := happyPipeline()
	p.Client = stubClient{authErr: &court.BusinessError{Kind: "invalid_credentials", Message: "nope"}}

	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})

	require.False(t, res.Success)
	assert.Equal(t, flow.StepAuthenticating, res.Step)
	assert.Contains(t, res.Error, "invalid_credentials")

	// Log covers every step strictly before authentication and none after.
	want := []string{flow.StepParsingPayload, flow.StepGettingSchedule, flow.StepGettingRefreshToken}
	assert.Equal(t, want, res.LogStepIDs())
}

func TestRunMalformedPayload(t *testing.T) {
	p, _ := happyPipeline()
	res := p.Run(context.Background(), Payload{})

	require.False(t, res.Success)
	assert.Equal(t, flow.StepParsingPayload, res.Step)
	assert.Empty(t, res.Log)
}

func TestRunScheduleNotFound(t *testing.T) {
	p, _ := happyPipeline()
	p.Schedules = stubSchedules{err: db.ErrNotFound}

	res := p.Run(context.Background(), Payload{ScheduleID: "missing"})
	require.False(t, res.Success)
	assert.Equal(t, flow.StepGettingSchedule, res.Step)
	assert.Equal(t, []string{flow.StepParsingPayload}, res.LogStepIDs())
}

func TestRunMissingToken(t *testing.T) {
	p, _ := happyPipeline()
	p.Tokens = &stubTokens{token: ""}

	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})
	require.False(t, res.Success)
	assert.Equal(t, flow.StepGettingRefreshToken, res.Step)
}

func TestRunTokenPersistFailureKeepsLog(t *testing.T) {
	p, _ := happyPipeline()
	p.Tokens = &stubTokens{token: "rt-old", setErr: errors.New("db down")}

	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})
	require.False(t, res.Success)
	assert.Equal(t, flow.StepUpdatingRefreshToken, res.Step)
	// The log accumulated before the persistence failure is still returned.
	assert.Equal(t, []string{
		flow.StepParsingPayload,
		flow.StepGettingSchedule,
		flow.StepGettingRefreshToken,
		flow.StepAuthenticating,
	}, res.LogStepIDs())
}

func TestRunSlotUnavailable(t *testing.T) {
	p, _ := happyPipeline()
	p.Client = stubClient{
		auth:    court.Auth{AccessToken: "at", RefreshToken: "rt-new"},
		bookErr: &court.BusinessError{Kind: "slot_unavailable", Message: "taken", Details: map[string]any{"hour": 19}},
	}

	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})
	require.False(t, res.Success)
	assert.Equal(t, flow.StepMakingReservation, res.Step)
	assert.Equal(t, map[string]any{"hour": 19}, res.Details)
}

func TestRunTestModeBypassesSchedule(t *testing.T) {
	p, _ := happyPipeline()
	p.Schedules = stubSchedules{err: errors.New("must not be called")}

	res := p.Run(context.Background(), Payload{Test: true, Hour: 21})
	require.True(t, res.Success)
	assert.Contains(t, res.LogStepIDs(), flow.StepTestMode)
	assert.NotContains(t, res.LogStepIDs(), flow.StepGettingSchedule)
	assert.Equal(t, 21, res.Data["hour"])
}

func TestRunTestModeHourOutOfRange(t *testing.T) {
	p, _ := happyPipeline()
	res := p.Run(context.Background(), Payload{Test: true, Hour: 24})
	require.False(t, res.Success)
	assert.Equal(t, flow.StepParsingPayload, res.Step)
}

func TestPreflight(t *testing.T) {
	p, tokens := happyPipeline()
	res := p.Preflight(context.Background())

	require.True(t, res.Success)
	assert.Equal(t, []string{
		flow.StepParsingPayload,
		flow.StepGettingRefreshToken,
		flow.StepAuthenticating,
		flow.StepSuccess,
	}, res.LogStepIDs())
	assert.Equal(t, "rt-new", tokens.setTo)
}

func TestPreflightAuthRejected(t *testing.T) {
	p, _ := happyPipeline()
	p.Client = stubClient{authErr: &court.TransportError{Op: "authenticate", Err: errors.New("timeout")}}

	res := p.Preflight(context.Background())
	require.False(t, res.Success)
	assert.Equal(t, flow.StepAuthenticating, res.Step)
}

func TestRunDurationAndObserver(t *testing.T) {
	p, _ := happyPipeline()

	var seen []string
	p.Observer = func(e LogEntry) { seen = append(seen, e.Step) }

	base := time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC)
	calls := 0
	p.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 50 * time.Millisecond)
	}

	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})
	require.True(t, res.Success)
	assert.Greater(t, res.DurationMS, int64(0))
	assert.Equal(t, res.LogStepIDs(), seen)
}

func TestResultSnapshot(t *testing.T) {
	p, _ := happyPipeline()
	p.Client = stubClient{authErr: &court.BusinessError{Kind: "invalid_credentials", Message: "no"}}
	res := p.Run(context.Background(), Payload{ScheduleID: "s1"})

	snap := res.Snapshot()
	statuses := flow.ResolveStatuses(flow.StepsFor(flow.ModeReservation), snap)
	assert.Equal(t, flow.StatusSuccess, statuses[flow.StepGettingSchedule])
	assert.Equal(t, flow.StatusError, statuses[flow.StepAuthenticating])
	assert.Equal(t, flow.StatusPending, statuses[flow.StepMakingReservation])
	assert.Equal(t, flow.StatusPending, statuses[flow.StepSuccess])
}
