package store

import (
	"context"
	"time"

	"github.com/example/court-scheduler/internal/db"
	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationFailed    ReservationStatus = "failed"
)

type Reservation struct {
	ID              uuid.UUID
	ScheduleID      *uuid.UUID
	ExecutionLogID  *uuid.UUID
	TimeSlotID      *uuid.UUID
	ReservationDate time.Time
	Status          ReservationStatus
	ExternalID      string
	CreatedAt       time.Time
}

type ReservationRepo struct{ db *db.DB }

func NewReservationRepo(d *db.DB) *ReservationRepo { return &ReservationRepo{db: d} }

func (r *ReservationRepo) Create(ctx context.Context, res Reservation) (uuid.UUID, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	err := r.db.Exec(ctx, `
INSERT INTO reservations(id, schedule_id, execution_log_id, time_slot_id, reservation_date, status, external_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		res.ID, res.ScheduleID, res.ExecutionLogID, res.TimeSlotID, res.ReservationDate, res.Status, res.ExternalID,
	)
	return res.ID, err
}

func (r *ReservationRepo) ListUpcoming(ctx context.Context, limit int) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, schedule_id, execution_log_id, time_slot_id, reservation_date, status, external_id, created_at
FROM reservations
WHERE reservation_date >= CURRENT_DATE AND status = 'confirmed'
ORDER BY reservation_date ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.ScheduleID, &res.ExecutionLogID, &res.TimeSlotID,
			&res.ReservationDate, &res.Status, &res.ExternalID, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) SetStatus(ctx context.Context, id uuid.UUID, status ReservationStatus) error {
	return r.db.Exec(ctx, `UPDATE reservations SET status=$2 WHERE id=$1`, id, status)
}

func (r *ReservationRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
WITH deleted AS (
	DELETE FROM reservations
	WHERE reservation_date < CURRENT_DATE - make_interval(days => $1)
	RETURNING 1
)
SELECT COUNT(*) FROM deleted`, days).Scan(&n)
	return n, err
}
