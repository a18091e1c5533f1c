package web

import (
	"net/http"
	"time"

	"github.com/example/court-scheduler/internal/flow"
	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/example/court-scheduler/internal/store"
	"github.com/example/court-scheduler/internal/trigger"
)

type tmplData struct {
	Title string
	Flash string

	ActiveSchedules int
	SuccessRate     int
	TokenStored     bool
	Upcoming        []store.Reservation
	RecentLogs      []execLogView

	Schedules []scheduleView
	TimeSlots []store.TimeSlot

	Logs   []execLogView
	Steps  []stepView
	Result *pipeline.Result
}

type scheduleView struct {
	store.Schedule
	TriggerDesc string
	NextRuns    []trigger.Execution
}

func newScheduleView(s store.Schedule, now time.Time) scheduleView {
	return scheduleView{
		Schedule:    s,
		TriggerDesc: trigger.FormatDescription(s.ReservationDay),
		NextRuns:    trigger.NextExecutionDates(now, s.ReservationDay, 3),
	}
}

type execLogView struct {
	store.ExecutionLog
	StatusLabel string
	FailedStep  string
}

func logView(l store.ExecutionLog) execLogView {
	v := execLogView{ExecutionLog: l, FailedStep: l.Result.Step}
	if l.Result.Success {
		v.StatusLabel = "success"
	} else {
		v.StatusLabel = "error"
	}
	return v
}

func logViews(logs []store.ExecutionLog) []execLogView {
	out := make([]execLogView, len(logs))
	for i, l := range logs {
		out[i] = logView(l)
	}
	return out
}

type stepView struct {
	ID        string
	Name      string
	Status    flow.Status
	Message   string
	Timestamp *time.Time
}

// stepViews projects the visible catalog subset of a completed result into
// per-step display rows; filtered-out steps trail the list as skipped.
func stepViews(res pipeline.Result) []stepView {
	seen := res.LogStepIDs()
	out := stepViewsFor(flow.VisibleSteps(seen), res)
	for _, st := range flow.SkippedSteps(seen) {
		out = append(out, stepView{ID: st.ID, Name: st.Name, Status: flow.StatusSkipped, Message: st.Description})
	}
	return out
}

// preflightStepViews renders against the preflight catalog. Preflight results
// are never persisted, so the log-based variant detection does not apply.
func preflightStepViews(res pipeline.Result) []stepView {
	return stepViewsFor(flow.StepsFor(flow.ModePreflight), res)
}

func stepViewsFor(steps []flow.Step, res pipeline.Result) []stepView {
	statuses := flow.ResolveStatuses(steps, res.Snapshot())

	byStep := make(map[string]pipeline.LogEntry, len(res.Log))
	for _, e := range res.Log {
		byStep[e.Step] = e
	}

	out := make([]stepView, 0, len(steps))
	for _, st := range steps {
		v := stepView{ID: st.ID, Name: st.Name, Status: statuses[st.ID], Message: st.Description}
		if e, ok := byStep[st.ID]; ok {
			v.Message = e.Message
			ts := e.Timestamp
			v.Timestamp = &ts
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) renderResult(w http.ResponseWriter, title string, res pipeline.Result, steps []stepView) {
	s.render(w, "templates/log_detail.html", tmplData{
		Title:  title,
		Steps:  steps,
		Result: &res,
	})
}
