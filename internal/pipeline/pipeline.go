package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/court-scheduler/internal/court"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/flow"
	"github.com/example/court-scheduler/internal/trigger"
	"github.com/hashicorp/go-hclog"
)

// Schedule is the view of a stored schedule the pipeline needs to execute it.
type Schedule struct {
	ID             string
	Name           string
	ReservationDay time.Weekday
	SlotHour       int
	SlotExternalID string
}

type ScheduleStore interface {
	GetSchedule(ctx context.Context, id string) (Schedule, error)
}

// TokenStore reads and writes the single current refresh token.
type TokenStore interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

type BookingClient interface {
	Authenticate(ctx context.Context, refreshToken string) (court.Auth, error)
	CreateReservation(ctx context.Context, accessToken string, req court.Request) (string, error)
}

// Payload is the invocation contract: a schedule reference for a normal run,
// or test parameters for a synthetic one.
type Payload struct {
	ScheduleID string `json:"scheduleId,omitempty"`
	Test       bool   `json:"test,omitempty"`
	Hour       int    `json:"hour,omitempty"`
}

func (p Payload) Mode() flow.Mode {
	if p.Test {
		return flow.ModeTest
	}
	return flow.ModeReservation
}

// Pipeline runs the ordered reservation steps against injected collaborators.
// Steps execute strictly sequentially and fail fast; there are no retries
// within a run.
type Pipeline struct {
	Schedules ScheduleStore
	Tokens    TokenStore
	Client    BookingClient
	Logger    hclog.Logger

	// Observer, when set, receives each log entry as it is appended. Used by
	// the web layer to stream progress.
	Observer func(LogEntry)

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() hclog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return hclog.NewNullLogger()
}

// run carries the mutable state of one execution.
type run struct {
	p      *Pipeline
	start  time.Time
	result Result
}

func (r *run) log(step, message string, details map[string]any) {
	e := LogEntry{Step: step, Message: message, Details: details, Timestamp: r.p.now()}
	r.result.Log = append(r.result.Log, e)
	if r.p.Observer != nil {
		r.p.Observer(e)
	}
	r.p.logger().Debug("step completed", "step", step, "message", message)
}

func (r *run) fail(step string, err error) Result {
	r.result.Success = false
	r.result.Step = step
	r.result.Error = err.Error()

	var be *court.BusinessError
	if errors.As(err, &be) {
		r.result.Details = be.Details
	}

	r.result.DurationMS = r.p.now().Sub(r.start).Milliseconds()
	r.p.logger().Warn("run failed", "step", step, "error", err)
	return r.result
}

func (r *run) succeed(data map[string]any) Result {
	r.log(flow.StepSuccess, "Reservation flow completed", nil)
	r.result.Success = true
	r.result.Data = data
	r.result.DurationMS = r.p.now().Sub(r.start).Milliseconds()
	return r.result
}

// Run executes the reservation flow for the payload. Every error is folded
// into the Result, attributed to exactly one step; Run never returns a
// partial log without a verdict.
func (p *Pipeline) Run(ctx context.Context, payload Payload) Result {
	r := &run{p: p, start: p.now()}

	// parsing_payload
	if err := validatePayload(payload); err != nil {
		return r.fail(flow.StepParsingPayload, err)
	}
	r.log(flow.StepParsingPayload, "Payload parsed", map[string]any{"mode": payload.Mode().String()})

	// getting_schedule / test_mode
	var sched Schedule
	if payload.Test {
		r.log(flow.StepTestMode, "Test mode: schedule lookup bypassed", map[string]any{"hour": payload.Hour})
		sched = Schedule{Name: "test", SlotHour: payload.Hour}
	} else {
		var err error
		sched, err = p.Schedules.GetSchedule(ctx, payload.ScheduleID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return r.fail(flow.StepGettingSchedule, fmt.Errorf("schedule %s not found", payload.ScheduleID))
			}
			return r.fail(flow.StepGettingSchedule, fmt.Errorf("load schedule: %w", err))
		}
		r.log(flow.StepGettingSchedule, "Schedule loaded: "+sched.Name, map[string]any{"scheduleId": sched.ID})
	}

	// getting_refresh_token
	token, err := p.Tokens.GetToken(ctx)
	if err != nil {
		return r.fail(flow.StepGettingRefreshToken, fmt.Errorf("read refresh token: %w", err))
	}
	if token == "" {
		return r.fail(flow.StepGettingRefreshToken, errors.New("no refresh token stored"))
	}
	r.log(flow.StepGettingRefreshToken, "Refresh token read", nil)

	// authenticating
	auth, err := p.Client.Authenticate(ctx, token)
	if err != nil {
		return r.fail(flow.StepAuthenticating, err)
	}
	r.log(flow.StepAuthenticating, "Authenticated with court API", map[string]any{"userId": auth.UserID})

	// updating_refresh_token
	if err := p.Tokens.SetToken(ctx, auth.RefreshToken); err != nil {
		return r.fail(flow.StepUpdatingRefreshToken, fmt.Errorf("persist refresh token: %w", err))
	}
	r.log(flow.StepUpdatingRefreshToken, "Refresh token rotated", nil)

	// making_reservation
	resDate := r.start.AddDate(0, 0, trigger.LeadDays)
	reservationID, err := p.Client.CreateReservation(ctx, auth.AccessToken, court.Request{
		SlotExternalID: sched.SlotExternalID,
		Date:           resDate,
		Hour:           sched.SlotHour,
		UserID:         auth.UserID,
	})
	if err != nil {
		return r.fail(flow.StepMakingReservation, err)
	}
	r.log(flow.StepMakingReservation, "Reservation requested", map[string]any{"date": resDate.Format("2006-01-02")})

	// processing_response
	if reservationID == "" {
		return r.fail(flow.StepProcessingResponse, errors.New("court API returned empty reservation id"))
	}
	r.log(flow.StepProcessingResponse, "Reservation confirmed: "+reservationID, nil)

	return r.succeed(map[string]any{
		"reservationId":   reservationID,
		"reservationDate": resDate.Format("2006-01-02"),
		"hour":            sched.SlotHour,
	})
}

// Preflight runs the validation-only subset: parse, read token, authenticate.
// It rotates the refresh token it receives so the stored one stays current.
func (p *Pipeline) Preflight(ctx context.Context) Result {
	r := &run{p: p, start: p.now()}

	r.log(flow.StepParsingPayload, "Preflight check requested", nil)

	token, err := p.Tokens.GetToken(ctx)
	if err != nil {
		return r.fail(flow.StepGettingRefreshToken, fmt.Errorf("read refresh token: %w", err))
	}
	if token == "" {
		return r.fail(flow.StepGettingRefreshToken, errors.New("no refresh token stored"))
	}
	r.log(flow.StepGettingRefreshToken, "Refresh token read", nil)

	auth, err := p.Client.Authenticate(ctx, token)
	if err != nil {
		return r.fail(flow.StepAuthenticating, err)
	}
	r.log(flow.StepAuthenticating, "Authenticated with court API", map[string]any{"userId": auth.UserID})

	if err := p.Tokens.SetToken(ctx, auth.RefreshToken); err != nil {
		p.logger().Warn("preflight: could not persist rotated token", "error", err)
	}

	return r.succeed(nil)
}

func validatePayload(p Payload) error {
	if p.Test {
		if p.Hour < 0 || p.Hour > 23 {
			return fmt.Errorf("test hour out of range: %d", p.Hour)
		}
		return nil
	}
	if p.ScheduleID == "" {
		return errors.New("payload missing scheduleId")
	}
	return nil
}
