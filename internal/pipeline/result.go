package pipeline

import (
	"time"

	"github.com/example/court-scheduler/internal/flow"
)

// LogEntry records one attempted step. Entries append in attempt order and a
// step id appears at most once per run.
type LogEntry struct {
	Step      string         `json:"step"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Result is the immutable outcome of one pipeline run.
type Result struct {
	Success    bool           `json:"success"`
	Step       string         `json:"step,omitempty"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMS int64          `json:"duration,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Log        []LogEntry     `json:"log"`
}

// LogStepIDs returns the ordered step ids of the log, the projection the
// catalog filter and status resolver consume.
func (r Result) LogStepIDs() []string {
	out := make([]string, len(r.Log))
	for i, e := range r.Log {
		out[i] = e.Step
	}
	return out
}

// Snapshot converts a completed result into the resolver's view.
func (r Result) Snapshot() *flow.Snapshot {
	return &flow.Snapshot{
		LogSteps:   r.LogStepIDs(),
		Success:    r.Success,
		FailedStep: r.Step,
	}
}
