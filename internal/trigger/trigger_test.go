package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDayOfWeek(t *testing.T) {
	for d := 0; d < 7; d++ {
		got := TriggerDayOfWeek(time.Weekday(d))
		assert.Equal(t, time.Weekday((d+4)%7), got, "reservation day %d", d)
	}
	// Sunday reservation fires on Thursday.
	assert.Equal(t, time.Thursday, TriggerDayOfWeek(time.Sunday))
	assert.Equal(t, time.Sunday, TriggerDayOfWeek(time.Wednesday))
}

func TestCronExpression(t *testing.T) {
	tr := New()
	assert.Equal(t, "cron(1 3 ? * THU *)", tr.CronExpression(time.Sunday))
	assert.Equal(t, "cron(1 3 ? * SUN *)", tr.CronExpression(time.Wednesday))
	assert.Equal(t, "cron(1 3 ? * MON *)", tr.CronExpression(time.Thursday))

	// Offset is configurable, not baked in.
	utc := NewWithOffset(0)
	assert.Equal(t, "cron(1 0 ? * THU *)", utc.CronExpression(time.Sunday))
}

func TestCronExpressionIdempotent(t *testing.T) {
	tr := New()
	for d := 0; d < 7; d++ {
		day := time.Weekday(d)
		assert.Equal(t, tr.CronExpression(day), tr.CronExpression(day))
		assert.Equal(t, TriggerDayOfWeek(day), TriggerDayOfWeek(day))
	}
}

func TestStandardCronSpec(t *testing.T) {
	assert.Equal(t, "1 0 * * THU", StandardCronSpec(time.Sunday))
	assert.Equal(t, "1 0 * * SUN", StandardCronSpec(time.Wednesday))
}

func TestNextExecutionDatesSpacing(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) // a Monday, midday
	for d := 0; d < 7; d++ {
		execs := NextExecutionDates(now, time.Weekday(d), 3)
		require.Len(t, execs, 3)
		for i, e := range execs {
			assert.Equal(t, TriggerDayOfWeek(time.Weekday(d)), e.TriggerDate.Weekday())
			assert.Equal(t, e.TriggerDate.AddDate(0, 0, LeadDays), e.ReservationDate)
			if i > 0 {
				assert.Equal(t, execs[i-1].TriggerDate.AddDate(0, 0, 7), e.TriggerDate)
			}
		}
	}
}

func TestNextExecutionDatesAnchorsOnFutureTrigger(t *testing.T) {
	// 2026-08-31 is a Monday. Sunday reservations trigger on Thursday,
	// so the anchor is Thursday 2026-09-03 at 00:01.
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	execs := NextExecutionDates(now, time.Sunday, 1)
	require.Len(t, execs, 1)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 1, 0, 0, time.UTC), execs[0].TriggerDate)
}

func TestNextExecutionDatesTodayCutoff(t *testing.T) {
	// 2026-09-03 is a Thursday, the trigger day for Sunday reservations.
	thursday := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		now     time.Time
		wantDay int
	}{
		{"midnight, trigger still ahead", thursday, 3},
		{"inside the firing minute", thursday.Add(1*time.Minute + 30*time.Second), 3},
		{"end of firing minute", thursday.Add(1*time.Minute + 59*time.Second), 3},
		{"minute after firing", thursday.Add(2 * time.Minute), 10},
		{"later the same day", thursday.Add(15 * time.Hour), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			execs := NextExecutionDates(tc.now, time.Sunday, 1)
			require.Len(t, execs, 1)
			assert.Equal(t, tc.wantDay, execs[0].TriggerDate.Day())
		})
	}
}

func TestFormatDescription(t *testing.T) {
	assert.Equal(t, "Every Thursday at 00:01", FormatDescription(time.Sunday))
	assert.Equal(t, "Every Sunday at 00:01", FormatDescription(time.Wednesday))
}
