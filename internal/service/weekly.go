package service

import (
	"time"

	"task-reminder/internal/model"
)

// weeklySearchHorizon caps the day-by-day walk; running out counts as no occurrence.
const weeklySearchHorizon = 500

// NextWeeklyOccurrence returns the earliest instant strictly after now that
// falls on one of the task's weekdays, lies inside [StartDate, EndDate 23:59:59]
// and carries the task's DueTime. Dates are read in now's location.
//
// A task missing any weekly field, with unparsable window bounds or with a
// malformed DueTime has no occurrence.
func NextWeeklyOccurrence(task model.Task, now time.Time) (time.Time, bool) {
	if task.StartDate == "" || task.EndDate == "" || task.DueTime == "" || len(task.DaysOfWeek) == 0 {
		return time.Time{}, false
	}

	loc := now.Location()
	start, ok := ParseDate(task.StartDate, loc)
	if !ok {
		return time.Time{}, false
	}
	endDay, ok := ParseDate(task.EndDate, loc)
	if !ok {
		return time.Time{}, false
	}
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, loc)

	hour, minute, ok := ParseClock(task.DueTime)
	if !ok {
		return time.Time{}, false
	}

	cursor := now
	if start.After(cursor) {
		cursor = start
	}
	y, m, d := cursor.Date()
	cursor = time.Date(y, m, d, 0, 0, 0, 0, loc)

	for i := 0; i < weeklySearchHorizon; i++ {
		if cursor.After(end) {
			return time.Time{}, false
		}
		if task.DaysOfWeek.Contains(cursor.Weekday()) {
			y, m, d = cursor.Date()
			occurrence := time.Date(y, m, d, hour, minute, 0, 0, loc)
			if occurrence.After(now) && !occurrence.Before(start) && !occurrence.After(end) {
				return occurrence, true
			}
		}
		y, m, d = cursor.Date()
		cursor = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}
	return time.Time{}, false
}
