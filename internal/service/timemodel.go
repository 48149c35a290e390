package service

import (
	"fmt"
	"strings"
	"time"

	"task-reminder/internal/model"
)

var clockLayouts = []string{model.ClockLayout, "15:04:05"}

var dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseDueTimestamp combines a calendar date and a local time of day into an
// instant in loc. It reports false when either field is missing or the pair
// does not name a real instant (e.g. 2024-02-30).
func ParseDueTimestamp(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range clockLayouts {
		ts, err := time.ParseInLocation(model.DateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseClock parses HH:MM (optionally HH:MM:SS) into hour and minute.
func ParseClock(clock string) (hour, minute int, ok bool) {
	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clock)
		if err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// FormatDue renders the due label, preferring date and time together.
func FormatDue(date, clock string) string {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	switch {
	case date != "" && clock != "":
		return fmt.Sprintf("Due: %s %s", date, clock)
	case date != "":
		return "Due: " + date
	case clock != "":
		return "Due: " + clock
	default:
		return ""
	}
}

// FormatWeeklySummary renders e.g. "Weekly Mon–Fri, 2024-01-01 → 2024-01-31 at 09:00".
func FormatWeeklySummary(task model.Task) string {
	if !task.IsWeekly() {
		return ""
	}

	days := task.DaysOfWeek.Normalize()
	var label string
	if days.String() == "1,2,3,4,5" {
		label = "Mon–Fri"
	} else {
		names := make([]string, 0, len(days))
		for _, d := range days {
			if d >= time.Sunday && d <= time.Saturday {
				names = append(names, dayNames[d])
			}
		}
		label = strings.Join(names, ", ")
	}

	var sb strings.Builder
	sb.WriteString("Weekly ")
	sb.WriteString(label)
	if task.StartDate != "" && task.EndDate != "" {
		sb.WriteString(fmt.Sprintf(", %s → %s", task.StartDate, task.EndDate))
	}
	if task.DueTime != "" {
		sb.WriteString(" at " + task.DueTime)
	}
	return sb.String()
}

// WhenLabel is the short due description shown alongside a notification.
func WhenLabel(task model.Task) string {
	if task.IsWeekly() {
		if task.DueTime == "" {
			return ""
		}
		return "Due at " + task.DueTime
	}
	return FormatDue(task.DueDate, task.DueTime)
}
