package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/court-scheduler/internal/store"
	"github.com/example/court-scheduler/internal/trigger"
	"github.com/google/uuid"
)

// Service owns the schedule lifecycle: it keeps the derived cron expression
// in step with the reservation day and the external trigger registration in
// step with the row.
type Service struct {
	Repo       *store.ScheduleRepo
	Slots      *store.TimeSlotRepo
	Triggers   TriggerRegistrar
	Translator trigger.Translator
}

type ScheduleInput struct {
	Name            string
	TimeSlotID      uuid.UUID
	ReservationDay  int // 0=Sunday..6=Saturday
	Frequency       store.Frequency
	NotifyOnSuccess bool
	NotifyOnFailure bool
}

func (in ScheduleInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name required")
	}
	if in.ReservationDay < 0 || in.ReservationDay > 6 {
		return fmt.Errorf("reservation day must be 0..6, got %d", in.ReservationDay)
	}
	if in.TimeSlotID == uuid.Nil {
		return fmt.Errorf("time slot required")
	}
	switch in.Frequency {
	case store.FrequencyWeekly, store.FrequencyBiweekly, store.FrequencyMonthly:
	default:
		return fmt.Errorf("invalid frequency %q", in.Frequency)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in ScheduleInput) (store.Schedule, error) {
	if err := in.validate(); err != nil {
		return store.Schedule{}, err
	}

	day := time.Weekday(in.ReservationDay)
	sched := store.Schedule{
		Name:            in.Name,
		TimeSlotID:      in.TimeSlotID,
		ReservationDay:  day,
		CronExpression:  s.Translator.CronExpression(day),
		Frequency:       in.Frequency,
		IsActive:        true,
		NotifyOnSuccess: in.NotifyOnSuccess,
		NotifyOnFailure: in.NotifyOnFailure,
	}

	id, err := s.Repo.Create(ctx, sched)
	if err != nil {
		return store.Schedule{}, err
	}

	handle, err := s.Triggers.Register(id, trigger.StandardCronSpec(day))
	if err != nil {
		// Roll the row back rather than leave a schedule that never fires.
		_ = s.Repo.Delete(ctx, id)
		return store.Schedule{}, err
	}
	if err := s.Repo.SetTriggerHandle(ctx, id, handle); err != nil {
		return store.Schedule{}, err
	}

	return s.Repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in ScheduleInput) (store.Schedule, error) {
	if err := in.validate(); err != nil {
		return store.Schedule{}, err
	}
	cur, err := s.Repo.Get(ctx, id)
	if err != nil {
		return store.Schedule{}, err
	}

	day := time.Weekday(in.ReservationDay)
	cur.Name = in.Name
	cur.TimeSlotID = in.TimeSlotID
	cur.Frequency = in.Frequency
	cur.NotifyOnSuccess = in.NotifyOnSuccess
	cur.NotifyOnFailure = in.NotifyOnFailure

	dayChanged := cur.ReservationDay != day
	cur.ReservationDay = day
	cur.CronExpression = s.Translator.CronExpression(day)

	if err := s.Repo.Update(ctx, cur); err != nil {
		return store.Schedule{}, err
	}

	if dayChanged && cur.IsActive {
		if err := s.Triggers.Deregister(cur.TriggerHandle); err != nil {
			return store.Schedule{}, err
		}
		handle, err := s.Triggers.Register(id, trigger.StandardCronSpec(day))
		if err != nil {
			return store.Schedule{}, err
		}
		if err := s.Repo.SetTriggerHandle(ctx, id, handle); err != nil {
			return store.Schedule{}, err
		}
	}

	return s.Repo.Get(ctx, id)
}

// Delete deregisters the trigger before removing the row; the registration is
// owned 1:1 by the schedule and must not outlive it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	cur, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.TriggerHandle != "" {
		if err := s.Triggers.Deregister(cur.TriggerHandle); err != nil {
			return err
		}
	}
	return s.Repo.Delete(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cur, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.IsActive == active {
		return nil
	}

	if active {
		handle, err := s.Triggers.Register(id, trigger.StandardCronSpec(cur.ReservationDay))
		if err != nil {
			return err
		}
		if err := s.Repo.SetTriggerHandle(ctx, id, handle); err != nil {
			return err
		}
	} else if cur.TriggerHandle != "" {
		if err := s.Triggers.Deregister(cur.TriggerHandle); err != nil {
			return err
		}
		if err := s.Repo.SetTriggerHandle(ctx, id, ""); err != nil {
			return err
		}
	}
	return s.Repo.SetActive(ctx, id, active)
}
