package store

import (
	"context"
	"time"

	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/trigger"
	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

type Schedule struct {
	ID              uuid.UUID
	Name            string
	TimeSlotID      uuid.UUID
	ReservationDay  time.Weekday
	CronExpression  string
	TriggerHandle   string
	Frequency       Frequency
	IsActive        bool
	NotifyOnSuccess bool
	NotifyOnFailure bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined from time_slots for display and execution.
	SlotHour       int
	SlotExternalID string
	SlotName       string
}

// TriggerDay is derived, never stored: it must always follow the reservation
// day through the fixed lead time.
func (s Schedule) TriggerDay() time.Weekday {
	return trigger.TriggerDayOfWeek(s.ReservationDay)
}

type ScheduleRepo struct{ db *db.DB }

func NewScheduleRepo(d *db.DB) *ScheduleRepo { return &ScheduleRepo{db: d} }

const scheduleColumns = `
s.id, s.name, s.time_slot_id, s.reservation_day_of_week, s.cron_expression, s.trigger_handle,
s.frequency, s.is_active, s.notify_on_success, s.notify_on_failure, s.created_at, s.updated_at,
COALESCE(t.hour, 0), COALESCE(t.external_id, ''), COALESCE(t.display_name, '')`

const scheduleFrom = `FROM schedules s LEFT JOIN time_slots t ON t.id = s.time_slot_id`

func scanSchedule(row db.Row) (Schedule, error) {
	var s Schedule
	var day int
	err := row.Scan(
		&s.ID, &s.Name, &s.TimeSlotID, &day, &s.CronExpression, &s.TriggerHandle,
		&s.Frequency, &s.IsActive, &s.NotifyOnSuccess, &s.NotifyOnFailure, &s.CreatedAt, &s.UpdatedAt,
		&s.SlotHour, &s.SlotExternalID, &s.SlotName,
	)
	if err != nil {
		return Schedule{}, db.WrapNotFound(err)
	}
	s.ReservationDay = time.Weekday(day)
	return s, nil
}

func (r *ScheduleRepo) Create(ctx context.Context, s Schedule) (uuid.UUID, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.Exec(ctx, `
INSERT INTO schedules(id, name, time_slot_id, reservation_day_of_week, cron_expression, trigger_handle,
                      frequency, is_active, notify_on_success, notify_on_failure)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.ID, s.Name, s.TimeSlotID, int(s.ReservationDay), s.CronExpression, s.TriggerHandle,
		s.Frequency, s.IsActive, s.NotifyOnSuccess, s.NotifyOnFailure,
	)
	return s.ID, err
}

func (r *ScheduleRepo) Get(ctx context.Context, id uuid.UUID) (Schedule, error) {
	return scanSchedule(r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` `+scheduleFrom+` WHERE s.id=$1`, id))
}

func (r *ScheduleRepo) List(ctx context.Context) ([]Schedule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduleColumns+` `+scheduleFrom+` ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepo) ListActive(ctx context.Context) ([]Schedule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduleColumns+` `+scheduleFrom+` WHERE s.is_active ORDER BY s.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields. The cron expression is passed in by the
// caller so it always tracks the reservation day.
func (r *ScheduleRepo) Update(ctx context.Context, s Schedule) error {
	return r.db.Exec(ctx, `
UPDATE schedules
SET name=$2, time_slot_id=$3, reservation_day_of_week=$4, cron_expression=$5,
    frequency=$6, is_active=$7, notify_on_success=$8, notify_on_failure=$9, updated_at=now()
WHERE id=$1`,
		s.ID, s.Name, s.TimeSlotID, int(s.ReservationDay), s.CronExpression,
		s.Frequency, s.IsActive, s.NotifyOnSuccess, s.NotifyOnFailure,
	)
}

func (r *ScheduleRepo) SetTriggerHandle(ctx context.Context, id uuid.UUID, handle string) error {
	return r.db.Exec(ctx, `UPDATE schedules SET trigger_handle=$2, updated_at=now() WHERE id=$1`, id, handle)
}

func (r *ScheduleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.Exec(ctx, `UPDATE schedules SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
}

func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id)
}

func (r *ScheduleRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE is_active`).Scan(&n)
	return n, err
}
