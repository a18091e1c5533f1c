package web

import (
	"encoding/json"
	"net/http"

	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/google/uuid"
)

// handleAPIExecute is the execution entry point: {"scheduleId": "..."} for a
// normal run, {"test": true, "hour": N} for a synthetic one. The response is
// the pipeline result verbatim.
func (s *Server) handleAPIExecute(w http.ResponseWriter, r *http.Request) {
	var payload pipeline.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed payload: " + err.Error()})
		return
	}

	var res pipeline.Result
	if payload.Test {
		res = s.Runner.RunTest(r.Context(), payload.Hour)
	} else {
		id, err := uuid.Parse(payload.ScheduleID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid scheduleId"})
			return
		}
		res = s.Runner.RunSchedule(r.Context(), id)
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

type apiStep struct {
	Step      string `json:"step"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// handleAPILogSteps re-derives per-step statuses from a persisted execution,
// for consumers rendering progress after the fact.
func (s *Server) handleAPILogSteps(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid id"})
		return
	}
	l, err := s.Logs.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	views := stepViews(l.Result)
	out := make([]apiStep, len(views))
	for i, v := range views {
		out[i] = apiStep{Step: v.ID, Name: v.Name, Status: string(v.Status), Message: v.Message}
		if v.Timestamp != nil {
			out[i].Timestamp = v.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
