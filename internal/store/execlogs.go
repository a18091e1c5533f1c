package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/google/uuid"
)

type ExecutionLog struct {
	ID         uuid.UUID
	ScheduleID *uuid.UUID
	Result     pipeline.Result
	ExecutedAt time.Time
}

type ExecLogRepo struct{ db *db.DB }

func NewExecLogRepo(d *db.DB) *ExecLogRepo { return &ExecLogRepo{db: d} }

// Insert persists a completed pipeline result. Append-only: results are
// immutable once written.
func (r *ExecLogRepo) Insert(ctx context.Context, scheduleID *uuid.UUID, res pipeline.Result) (uuid.UUID, error) {
	id := uuid.New()

	logJSON, err := json.Marshal(res.Log)
	if err != nil {
		return uuid.Nil, err
	}
	details, err := json.Marshal(res.Details)
	if err != nil {
		return uuid.Nil, err
	}
	data, err := json.Marshal(res.Data)
	if err != nil {
		return uuid.Nil, err
	}

	var resDate *string
	if d, ok := res.Data["reservationDate"].(string); ok && d != "" {
		resDate = &d
	}

	var failedStep, errMsg *string
	if res.Step != "" {
		failedStep = &res.Step
	}
	if res.Error != "" {
		errMsg = &res.Error
	}

	err = r.db.Exec(ctx, `
INSERT INTO execution_logs(id, schedule_id, success, failed_step, error_message, error_details, result_data, log, reservation_date, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, scheduleID, res.Success, failedStep, errMsg, details, data, logJSON, resDate, res.DurationMS,
	)
	return id, err
}

func (r *ExecLogRepo) Get(ctx context.Context, id uuid.UUID) (ExecutionLog, error) {
	row := r.db.QueryRow(ctx, `
SELECT id, schedule_id, success, failed_step, error_message, error_details, result_data, log, duration_ms, executed_at
FROM execution_logs WHERE id=$1`, id)
	return scanExecLog(row)
}

func (r *ExecLogRepo) List(ctx context.Context, limit int) ([]ExecutionLog, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, schedule_id, success, failed_step, error_message, error_details, result_data, log, duration_ms, executed_at
FROM execution_logs ORDER BY executed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExecutionLog
	for rows.Next() {
		l, err := scanExecLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanExecLog(row db.Row) (ExecutionLog, error) {
	var l ExecutionLog
	var failedStep, errMsg *string
	var details, data, logJSON []byte
	err := row.Scan(&l.ID, &l.ScheduleID, &l.Result.Success, &failedStep, &errMsg,
		&details, &data, &logJSON, &l.Result.DurationMS, &l.ExecutedAt)
	if err != nil {
		return ExecutionLog{}, db.WrapNotFound(err)
	}
	if failedStep != nil {
		l.Result.Step = *failedStep
	}
	if errMsg != nil {
		l.Result.Error = *errMsg
	}
	_ = json.Unmarshal(details, &l.Result.Details)
	_ = json.Unmarshal(data, &l.Result.Data)
	if err := json.Unmarshal(logJSON, &l.Result.Log); err != nil {
		return ExecutionLog{}, err
	}
	return l, nil
}

// SuccessRate returns the fraction of successful runs over the last n days,
// for the dashboard. Zero runs reports 0.
func (r *ExecLogRepo) SuccessRate(ctx context.Context, days int) (float64, error) {
	var total, ok int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE success)
FROM execution_logs
WHERE executed_at > now() - make_interval(days => $1)`, days).Scan(&total, &ok)
	if err != nil || total == 0 {
		return 0, err
	}
	return float64(ok) / float64(total), nil
}

// DeleteOlderThan removes logs past the retention window, returning the
// number of rows deleted.
func (r *ExecLogRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
WITH deleted AS (
	DELETE FROM execution_logs
	WHERE executed_at < now() - make_interval(days => $1)
	RETURNING 1
)
SELECT COUNT(*) FROM deleted`, days).Scan(&n)
	return n, err
}
