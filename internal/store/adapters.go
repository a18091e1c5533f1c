package store

import (
	"context"

	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/google/uuid"
)

// PipelineSchedules adapts ScheduleRepo to the pipeline's read-only view.
type PipelineSchedules struct{ Repo *ScheduleRepo }

func (a PipelineSchedules) GetSchedule(ctx context.Context, id string) (pipeline.Schedule, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return pipeline.Schedule{}, err
	}
	s, err := a.Repo.Get(ctx, uid)
	if err != nil {
		return pipeline.Schedule{}, err
	}
	return pipeline.Schedule{
		ID:             s.ID.String(),
		Name:           s.Name,
		ReservationDay: s.ReservationDay,
		SlotHour:       s.SlotHour,
		SlotExternalID: s.SlotExternalID,
	}, nil
}
