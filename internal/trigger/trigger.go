package trigger

import (
	"fmt"
	"time"
)

// LeadDays is the fixed number of days between a trigger firing and the
// reservation date it targets.
const LeadDays = 10

// Triggers fire at 00:01 local civil time.
const (
	TriggerHour   = 0
	TriggerMinute = 1
)

// DefaultUTCOffset is the scheduler deployment's civil-time offset. The cron
// fields are expressed in UTC, so 00:01 local at UTC-3 becomes 03:01 UTC.
const DefaultUTCOffset = -3 * time.Hour

var dayNames = [7]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// Translator renders cron expressions for a deployment-specific UTC offset.
// The zero value is not usable; call New for the reference deployment.
type Translator struct {
	offset time.Duration
}

func New() Translator { return Translator{offset: DefaultUTCOffset} }

func NewWithOffset(offset time.Duration) Translator { return Translator{offset: offset} }

// TriggerDayOfWeek maps a reservation weekday to the weekday the trigger must
// fire. Ten days of lead time is a week plus three days, so the trigger day is
// three weekdays before the reservation day.
func TriggerDayOfWeek(reservationDay time.Weekday) time.Weekday {
	return time.Weekday((int(reservationDay) + 7 - LeadDays%7) % 7)
}

// CronExpression builds the scheduler-facing cron string, EventBridge format:
// cron(minute hour day-of-month month day-of-week year). Hour and minute are
// the 00:01 local firing time shifted into UTC by the translator's offset.
func (t Translator) CronExpression(reservationDay time.Weekday) string {
	day := TriggerDayOfWeek(reservationDay)
	utc := time.Date(2000, 1, 1, TriggerHour, TriggerMinute, 0, 0, time.UTC).Add(-t.offset)
	return fmt.Sprintf("cron(%d %d ? * %s *)", utc.Minute(), utc.Hour(), dayNames[day])
}

// StandardCronSpec is the five-field local-time equivalent consumed by the
// in-process cron runner.
func StandardCronSpec(reservationDay time.Weekday) string {
	return fmt.Sprintf("%d %d * * %s", TriggerMinute, TriggerHour, dayNames[TriggerDayOfWeek(reservationDay)])
}

// Execution pairs a trigger firing with the reservation date it targets.
type Execution struct {
	TriggerDate     time.Time
	ReservationDate time.Time
}

// NextExecutionDates returns the next count executions for a reservation
// weekday, spaced exactly seven days apart, each reservation LeadDays after
// its trigger. If today is the trigger day, it only counts while the local
// clock is still inside the firing minute: through the end of 00:01 the
// trigger has not elapsed, from 00:02:00 the next occurrence is next week.
func NextExecutionDates(now time.Time, reservationDay time.Weekday, count int) []Execution {
	triggerDay := TriggerDayOfWeek(reservationDay)

	daysUntil := (int(triggerDay) - int(now.Weekday()) + 7) % 7
	if daysUntil == 0 && (now.Hour() > TriggerHour || now.Minute() > TriggerMinute) {
		daysUntil = 7
	}

	anchor := time.Date(now.Year(), now.Month(), now.Day(), TriggerHour, TriggerMinute, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)

	out := make([]Execution, 0, count)
	for i := 0; i < count; i++ {
		trig := anchor.AddDate(0, 0, i*7)
		out = append(out, Execution{
			TriggerDate:     trig,
			ReservationDate: trig.AddDate(0, 0, LeadDays),
		})
	}
	return out
}

// FormatDescription renders the trigger timing for display.
func FormatDescription(reservationDay time.Weekday) string {
	return fmt.Sprintf("Every %s at %02d:%02d", TriggerDayOfWeek(reservationDay), TriggerHour, TriggerMinute)
}
