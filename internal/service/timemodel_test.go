package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-reminder/internal/model"
)

func TestParseDueTimestamp(t *testing.T) {
	loc := time.UTC

	got, ok := ParseDueTimestamp("2024-03-10", "14:05", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 10, 14, 5, 0, 0, loc), got)

	got, ok = ParseDueTimestamp("2024-03-10", "14:05:30", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 10, 14, 5, 30, 0, loc), got)

	invalid := []struct{ date, clock string }{
		{"2024-02-30", "10:00"},
		{"", "10:00"},
		{"2024-01-01", ""},
		{"01/02/2024", "10:00"},
		{"2024-01-01", "25:00"},
		{"2024-01-01", "noon"},
	}
	for _, tt := range invalid {
		_, ok := ParseDueTimestamp(tt.date, tt.clock, loc)
		assert.False(t, ok, "date=%q clock=%q", tt.date, tt.clock)
	}
}

func TestParseDueTimestamp_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got, ok := ParseDueTimestamp("2024-03-10", "09:00", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC), got.UTC())
}

func TestParseClock(t *testing.T) {
	h, m, ok := ParseClock("07:45")
	require.True(t, ok)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	_, _, ok = ParseClock("7h45")
	assert.False(t, ok)
	_, _, ok = ParseClock("24:00")
	assert.False(t, ok)
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "Due: 2024-01-01 10:00", FormatDue("2024-01-01", "10:00"))
	assert.Equal(t, "Due: 2024-01-01", FormatDue("2024-01-01", ""))
	assert.Equal(t, "Due: 10:00", FormatDue("", "10:00"))
	assert.Equal(t, "", FormatDue("", ""))
}

func TestFormatWeeklySummary(t *testing.T) {
	task := model.Task{
		Kind: model.KindReminder, Mode: model.ModeWeekly,
		StartDate: "2024-01-01", EndDate: "2024-01-31", DueTime: "09:00",
		DaysOfWeek: model.Weekdays{5, 4, 3, 2, 1},
	}
	assert.Equal(t, "Weekly Mon–Fri, 2024-01-01 → 2024-01-31 at 09:00", FormatWeeklySummary(task))

	task.DaysOfWeek = model.Weekdays{time.Saturday, time.Sunday}
	task.StartDate = ""
	assert.Equal(t, "Weekly Sun, Sat at 09:00", FormatWeeklySummary(task))

	assert.Equal(t, "", FormatWeeklySummary(model.Task{Kind: model.KindTask}))
}

func TestWhenLabel(t *testing.T) {
	weekly := model.Task{Kind: model.KindReminder, Mode: model.ModeWeekly, DueTime: "09:00"}
	assert.Equal(t, "Due at 09:00", WhenLabel(weekly))

	once := model.Task{Kind: model.KindReminder, Mode: model.ModeOnce, DueDate: "2024-01-01", DueTime: "10:00"}
	assert.Equal(t, "Due: 2024-01-01 10:00", WhenLabel(once))
}
