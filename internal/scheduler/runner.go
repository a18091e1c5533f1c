package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/example/court-scheduler/internal/store"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Runner drives pipeline executions and persists their outcomes. Runs for the
// same schedule serialize on a per-schedule lock so a manual re-run cannot
// interleave with a scheduled one; runs for different schedules are
// independent.
type Runner struct {
	Pipeline     *pipeline.Pipeline
	Schedules    *store.ScheduleRepo
	Logs         *store.ExecLogRepo
	Reservations *store.ReservationRepo
	Logger       hclog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (r *Runner) lockFor(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	if _, ok := r.locks[id]; !ok {
		r.locks[id] = &sync.Mutex{}
	}
	return r.locks[id]
}

func (r *Runner) logger() hclog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return hclog.NewNullLogger()
}

// RunSchedule executes the reservation flow for one schedule and records the
// result. The returned result always carries the full log, even when
// persisting it failed.
func (r *Runner) RunSchedule(ctx context.Context, scheduleID uuid.UUID) pipeline.Result {
	lock := r.lockFor(scheduleID)
	lock.Lock()
	defer lock.Unlock()

	r.logger().Info("run starting", "schedule", scheduleID)
	res := r.Pipeline.Run(ctx, pipeline.Payload{ScheduleID: scheduleID.String()})
	r.record(ctx, &scheduleID, res)
	return res
}

// RunTest executes the synthetic flow: no schedule is involved.
func (r *Runner) RunTest(ctx context.Context, hour int) pipeline.Result {
	r.logger().Info("test run starting", "hour", hour)
	res := r.Pipeline.Run(ctx, pipeline.Payload{Test: true, Hour: hour})
	r.record(ctx, nil, res)
	return res
}

// RunPreflight checks credentials without booking. Preflight results are not
// persisted; they only inform the caller.
func (r *Runner) RunPreflight(ctx context.Context) pipeline.Result {
	return r.Pipeline.Preflight(ctx)
}

func (r *Runner) record(ctx context.Context, scheduleID *uuid.UUID, res pipeline.Result) {
	logID, err := r.Logs.Insert(ctx, scheduleID, res)
	if err != nil {
		r.logger().Error("persist execution log", "error", err)
		return
	}

	if !res.Success {
		return
	}
	extID, _ := res.Data["reservationId"].(string)
	dateStr, _ := res.Data["reservationDate"].(string)
	resDate, err := parseDate(dateStr)
	if err != nil {
		r.logger().Error("reservation date missing from result", "log", logID)
		return
	}
	if _, err := r.Reservations.Create(ctx, store.Reservation{
		ScheduleID:      scheduleID,
		ExecutionLogID:  &logID,
		ReservationDate: resDate,
		Status:          store.ReservationConfirmed,
		ExternalID:      extID,
	}); err != nil {
		r.logger().Error("persist reservation", "error", err)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return time.Parse("2006-01-02", s)
}
