package flow

// Stable step identifiers. These appear in persisted execution logs and in the
// JSON surface, so they must never be renamed.
const (
	StepParsingPayload       = "parsing_payload"
	StepTestMode             = "test_mode"
	StepGettingSchedule      = "getting_schedule"
	StepGettingRefreshToken  = "getting_refresh_token"
	StepAuthenticating       = "authenticating"
	StepUpdatingRefreshToken = "updating_refresh_token"
	StepMakingReservation    = "making_reservation"
	StepProcessingResponse   = "processing_response"
	StepSuccess              = "success"

	// StepError is synthetic: it never appears in a log, but renders as the
	// terminal failure marker.
	StepError = "error"
)

type Step struct {
	ID          string
	Name        string
	Description string
}

// Mode selects one of the three catalog variants.
type Mode int

const (
	ModeReservation Mode = iota
	ModePreflight
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModePreflight:
		return "preflight"
	case ModeTest:
		return "test"
	default:
		return "reservation"
	}
}

var reservationSteps = []Step{
	{StepParsingPayload, "Parse payload", "Validate the incoming invocation payload"},
	{StepGettingSchedule, "Load schedule", "Fetch the schedule being executed"},
	{StepGettingRefreshToken, "Read refresh token", "Read the current refresh token"},
	{StepAuthenticating, "Authenticate", "Authenticate against the court API"},
	{StepUpdatingRefreshToken, "Store refresh token", "Persist the rotated refresh token"},
	{StepMakingReservation, "Make reservation", "Request the reservation slot"},
	{StepProcessingResponse, "Process response", "Validate the court API response"},
	{StepSuccess, "Done", "Reservation confirmed"},
}

var preflightSteps = []Step{
	{StepParsingPayload, "Parse payload", "Validate the incoming invocation payload"},
	{StepGettingRefreshToken, "Read refresh token", "Read the current refresh token"},
	{StepAuthenticating, "Authenticate", "Authenticate against the court API"},
	{StepSuccess, "Done", "Credentials verified"},
}

var testSteps = []Step{
	{StepParsingPayload, "Parse payload", "Validate the incoming invocation payload"},
	{StepTestMode, "Test mode", "Synthetic run, schedule lookup bypassed"},
	{StepGettingRefreshToken, "Read refresh token", "Read the current refresh token"},
	{StepAuthenticating, "Authenticate", "Authenticate against the court API"},
	{StepUpdatingRefreshToken, "Store refresh token", "Persist the rotated refresh token"},
	{StepMakingReservation, "Make reservation", "Request the reservation slot"},
	{StepProcessingResponse, "Process response", "Validate the court API response"},
	{StepSuccess, "Done", "Reservation confirmed"},
}

// StepsFor returns the ordered step sequence for a mode. Callers must not
// mutate the returned slice.
func StepsFor(mode Mode) []Step {
	switch mode {
	case ModePreflight:
		return preflightSteps
	case ModeTest:
		return testSteps
	default:
		return reservationSteps
	}
}

// VisibleSteps filters the reservation catalog down to the steps relevant to a
// given run, based purely on which step ids appear in its log. A test_mode
// marker means no schedule was fetched, so getting_schedule is dropped and the
// marker itself is shown in its place.
func VisibleSteps(seenStepIDs []string) []Step {
	seen := make(map[string]bool, len(seenStepIDs))
	for _, id := range seenStepIDs {
		seen[id] = true
	}
	if !seen[StepTestMode] {
		return reservationSteps
	}
	return testSteps
}

// SkippedSteps returns the reservation-catalog steps hidden by VisibleSteps
// for the same log. These render as skipped, never as pending or failed.
func SkippedSteps(seenStepIDs []string) []Step {
	visible := make(map[string]bool)
	for _, s := range VisibleSteps(seenStepIDs) {
		visible[s.ID] = true
	}
	var out []Step
	for _, s := range reservationSteps {
		if !visible[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
