package flow

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Snapshot is the observable state of one execution: the ordered step ids
// logged so far plus, once the run has finished, its outcome. A nil Snapshot
// means no log exists yet.
type Snapshot struct {
	LogSteps   []string
	InProgress bool

	// Valid only when InProgress is false.
	Success    bool
	FailedStep string
}

// ResolveStatuses projects a display status for every step of the selected
// catalog variant. It works identically for live (streaming) and completed
// runs; SkippedSteps handles the skipped state separately.
func ResolveStatuses(steps []Step, snap *Snapshot) map[string]Status {
	out := make(map[string]Status, len(steps))
	if snap == nil {
		for _, s := range steps {
			out[s.ID] = StatusPending
		}
		return out
	}

	logged := make(map[string]bool, len(snap.LogSteps))
	for _, id := range snap.LogSteps {
		logged[id] = true
	}

	lastIdx := -1
	if n := len(snap.LogSteps); n > 0 {
		last := snap.LogSteps[n-1]
		for i, s := range steps {
			if s.ID == last {
				lastIdx = i
				break
			}
		}
	}

	for i, s := range steps {
		out[s.ID] = resolveOne(s.ID, i, lastIdx, logged, snap)
	}
	return out
}

func resolveOne(id string, idx, lastIdx int, logged map[string]bool, snap *Snapshot) Status {
	if !snap.InProgress && !snap.Success && (id == StepError || id == snap.FailedStep) {
		// The failing step rarely has a log entry of its own; the result's
		// failing-step identifier is authoritative either way.
		return StatusError
	}
	if logged[id] {
		return StatusSuccess
	}
	// Not logged. Anything before the last logged step must have completed,
	// even if it was later filtered out of the visible list.
	if idx < lastIdx {
		return StatusSuccess
	}
	if snap.InProgress && idx == lastIdx+1 {
		return StatusRunning
	}
	return StatusPending
}
