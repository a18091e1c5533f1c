package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/court-scheduler/internal/trigger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
)

// TriggerRegistrar is the capability schedules consume: register a cron
// trigger on create, deregister it on delete. Implementations own the mapping
// from handle to whatever the backing scheduler uses.
type TriggerRegistrar interface {
	Register(scheduleID uuid.UUID, cronSpec string) (handle string, err error)
	Deregister(handle string) error
}

// Cron is the in-process TriggerRegistrar: a robfig/cron instance running in
// the configured local timezone that invokes the Runner when a trigger fires.
type Cron struct {
	cron   *cron.Cron
	runner *Runner
	logger hclog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewCron(loc *time.Location, runner *Runner, logger hclog.Logger) *Cron {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Cron{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		logger:  logger.Named("cron"),
		entries: make(map[string]cron.EntryID),
	}
}

func (c *Cron) Start() { c.cron.Start() }

// Stop halts scheduling and waits for in-flight runs.
func (c *Cron) Stop() { <-c.cron.Stop().Done() }

func (c *Cron) Register(scheduleID uuid.UUID, cronSpec string) (string, error) {
	id, err := c.cron.AddFunc(cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res := c.runner.RunSchedule(ctx, scheduleID)
		c.logger.Info("trigger fired", "schedule", scheduleID, "success", res.Success)
	})
	if err != nil {
		return "", fmt.Errorf("register trigger: %w", err)
	}

	handle := fmt.Sprintf("cron-%d", id)
	c.mu.Lock()
	c.entries[handle] = id
	c.mu.Unlock()
	return handle, nil
}

func (c *Cron) Deregister(handle string) error {
	c.mu.Lock()
	id, ok := c.entries[handle]
	if ok {
		delete(c.entries, handle)
	}
	c.mu.Unlock()
	if !ok {
		// Handle from a previous process lifetime; nothing to remove.
		return nil
	}
	c.cron.Remove(id)
	return nil
}

// Sync registers triggers for every active schedule, called at boot since
// in-process cron entries do not survive restarts. Stored handles are
// refreshed to this lifetime's entries.
func (c *Cron) Sync(ctx context.Context) error {
	scheds, err := c.runner.Schedules.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, s := range scheds {
		handle, err := c.Register(s.ID, trigger.StandardCronSpec(s.ReservationDay))
		if err != nil {
			c.logger.Error("register schedule", "schedule", s.ID, "error", err)
			continue
		}
		if err := c.runner.Schedules.SetTriggerHandle(ctx, s.ID, handle); err != nil {
			c.logger.Error("store trigger handle", "schedule", s.ID, "error", err)
		}
	}
	c.logger.Info("schedules synced", "count", len(scheds))
	return nil
}
