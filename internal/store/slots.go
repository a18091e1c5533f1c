package store

import (
	"context"
	"fmt"
	"time"

	"github.com/example/court-scheduler/internal/db"
	"github.com/google/uuid"
)

type TimeSlot struct {
	ID          uuid.UUID
	Hour        int
	ExternalID  string
	DisplayName string
	CreatedAt   time.Time
}

type TimeSlotRepo struct{ db *db.DB }

func NewTimeSlotRepo(d *db.DB) *TimeSlotRepo { return &TimeSlotRepo{db: d} }

func (r *TimeSlotRepo) Create(ctx context.Context, hour int, externalID, displayName string) (uuid.UUID, error) {
	if hour < 0 || hour > 23 {
		return uuid.Nil, fmt.Errorf("hour out of range: %d", hour)
	}
	if displayName == "" {
		displayName = fmt.Sprintf("%02d:00", hour)
	}
	id := uuid.New()
	err := r.db.Exec(ctx, `INSERT INTO time_slots(id, hour, external_id, display_name) VALUES ($1,$2,$3,$4)`,
		id, hour, externalID, displayName)
	return id, err
}

func (r *TimeSlotRepo) List(ctx context.Context) ([]TimeSlot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, hour, external_id, display_name, created_at FROM time_slots ORDER BY hour`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeSlot
	for rows.Next() {
		var t TimeSlot
		if err := rows.Scan(&t.ID, &t.Hour, &t.ExternalID, &t.DisplayName, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TimeSlotRepo) GetByHour(ctx context.Context, hour int) (TimeSlot, error) {
	var t TimeSlot
	err := r.db.QueryRow(ctx, `SELECT id, hour, external_id, display_name, created_at FROM time_slots WHERE hour=$1`, hour).
		Scan(&t.ID, &t.Hour, &t.ExternalID, &t.DisplayName, &t.CreatedAt)
	if err != nil {
		return TimeSlot{}, db.WrapNotFound(err)
	}
	return t, nil
}
