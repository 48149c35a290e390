// Package calendar exports reminders as an iCalendar feed.
package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"task-reminder/internal/model"
	"task-reminder/internal/service"
)

const (
	productID = "-//task-reminder//Reminder Export//EN"
	// Floating local time: reminders carry no timezone beyond wall-clock.
	floatingLayout = "20060102T150405"
	utcLayout      = "20060102T150405Z"
)

var byDay = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Export encodes every schedulable reminder in tasks as a VEVENT. Once
// reminders become single events; weekly reminders start at their first
// occurrence and repeat by RRULE until the end of their window. Plain tasks and
// reminders without a valid schedule are skipped.
func Export(tasks []model.Task, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	for _, task := range tasks {
		event, ok := buildEvent(task, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func buildEvent(task model.Task, now time.Time) (*ical.Event, bool) {
	if !task.IsReminder() {
		return nil, false
	}
	loc := now.Location()

	var start time.Time
	var rrule string
	switch task.Mode {
	case model.ModeOnce:
		due, ok := service.ParseDueTimestamp(task.DueDate, task.DueTime, loc)
		if !ok {
			return nil, false
		}
		start = due
	case model.ModeWeekly:
		windowStart, ok := service.ParseDate(task.StartDate, loc)
		if !ok {
			return nil, false
		}
		first, ok := service.NextWeeklyOccurrence(task, windowStart.Add(-time.Nanosecond))
		if !ok {
			return nil, false
		}
		start = first
		rrule = weeklyRule(task)
	default:
		return nil, false
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("task-%d@task-reminder", task.ID))
	setRaw(event.Component, ical.PropDateTimeStamp, now.UTC().Format(utcLayout))
	event.Props.SetText(ical.PropSummary, strings.TrimSpace(task.Text))
	setRaw(event.Component, ical.PropDateTimeStart, start.Format(floatingLayout))
	setRaw(event.Component, ical.PropDateTimeEnd, start.Add(service.PreAlertLead).Format(floatingLayout))
	if rrule != "" {
		setRaw(event.Component, ical.PropRecurrenceRule, rrule)
	}
	if label := service.WhenLabel(task); label != "" {
		event.Props.SetText(ical.PropDescription, label)
	}

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, strings.TrimSpace(task.Text))
	setRaw(alarm, ical.PropTrigger, fmt.Sprintf("-PT%dM", int(service.PreAlertLead/time.Minute)))
	event.Children = append(event.Children, alarm)

	return event, true
}

func weeklyRule(task model.Task) string {
	days := task.DaysOfWeek.Normalize()
	codes := make([]string, 0, len(days))
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			codes = append(codes, byDay[d])
		}
	}
	until := strings.ReplaceAll(task.EndDate, "-", "") + "T235959"
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s", strings.Join(codes, ","), until)
}

// setRaw stores a property value verbatim; SetText would escape the commas
// RRULE and date values rely on.
func setRaw(comp *ical.Component, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	comp.Props.Set(prop)
}
