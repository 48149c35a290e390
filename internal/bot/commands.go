package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"task-reminder/internal/model"
	"task-reminder/internal/service"
)

const (
	usageTask   = "/task <text>"
	usageRemind = "/remind <YYYY-MM-DD> <HH:MM> <text>"
	usageWeekly = "/weekly <start YYYY-MM-DD> <end YYYY-MM-DD> <HH:MM> <days> <text>"
	usageEdit   = "/edit <id> <text> [<YYYY-MM-DD> <HH:MM>]"
	usageDelete = "/delete <id>"
)

// usageError is returned when command arguments don't match the expected shape.
type usageError string

func (e usageError) Error() string {
	return "usage: " + string(e)
}

var errBadTaskID = errors.New("task id must be a positive number")

func parseTaskID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, errBadTaskID
	}
	return uint(value), nil
}

// leadingFields splits off the first n whitespace-separated fields of s and
// returns them with the trimmed remainder.
func leadingFields(s string, n int) ([]string, string, bool) {
	s = strings.TrimSpace(s)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if s == "" {
			return nil, "", false
		}
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx < 0 {
			out = append(out, s)
			s = ""
			continue
		}
		out = append(out, s[:idx])
		s = strings.TrimSpace(s[idx:])
	}
	return out, s, true
}

func parseTaskArgs(args string) (service.TaskInput, error) {
	text := strings.TrimSpace(args)
	if text == "" {
		return service.TaskInput{}, usageError(usageTask)
	}
	return service.TaskInput{Text: text, Kind: model.KindTask}, nil
}

func parseRemindArgs(args string) (service.TaskInput, error) {
	fields, text, ok := leadingFields(args, 2)
	if !ok || text == "" {
		return service.TaskInput{}, usageError(usageRemind)
	}
	return service.TaskInput{
		Text:    text,
		Kind:    model.KindReminder,
		Mode:    model.ModeOnce,
		DueDate: fields[0],
		DueTime: fields[1],
	}, nil
}

func parseWeeklyArgs(args string) (service.TaskInput, error) {
	fields, text, ok := leadingFields(args, 4)
	if !ok || text == "" {
		return service.TaskInput{}, usageError(usageWeekly)
	}
	days, err := service.ParseWeekdays(fields[3])
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Text:       text,
		Kind:       model.KindReminder,
		Mode:       model.ModeWeekly,
		StartDate:  fields[0],
		EndDate:    fields[1],
		DueTime:    fields[2],
		DaysOfWeek: days,
	}, nil
}

// parseEditArgs reads "<id> <text> [<date> <time>]". A trailing date and time
// pair is taken as the new due instant; everything else is text.
func parseEditArgs(args string) (uint, service.TaskEdit, error) {
	fields, rest, ok := leadingFields(args, 1)
	if !ok || rest == "" {
		return 0, service.TaskEdit{}, usageError(usageEdit)
	}
	id, err := parseTaskID(fields[0])
	if err != nil {
		return 0, service.TaskEdit{}, err
	}

	words := strings.Fields(rest)
	n := len(words)
	if n >= 3 && looksLikeDate(words[n-2]) && looksLikeClock(words[n-1]) {
		date, clock := words[n-2], words[n-1]
		return id, service.TaskEdit{
			Text:    strings.Join(words[:n-2], " "),
			DueDate: &date,
			DueTime: &clock,
		}, nil
	}
	return id, service.TaskEdit{Text: rest}, nil
}

func looksLikeDate(s string) bool {
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

func looksLikeClock(s string) bool {
	_, _, ok := service.ParseClock(s)
	return ok
}

// userMessage turns an error into a reply for the chat.
func userMessage(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return fmt.Sprintf("Usage: <code>%s</code>", escape(string(usage)))
	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrTextRequired):
		return "Task text cannot be empty."
	case errors.Is(err, service.ErrDueRequired):
		return "A reminder needs both a date and a time."
	case errors.Is(err, service.ErrWeeklyRequired):
		return "A weekly reminder needs a start date, an end date and a time."
	case errors.Is(err, service.ErrInvalidDate):
		return fmt.Sprintf("Invalid date, use YYYY-MM-DD (%s).", escape(err.Error()))
	case errors.Is(err, service.ErrInvalidTime):
		return fmt.Sprintf("Invalid time, use HH:MM (%s).", escape(err.Error()))
	case errors.Is(err, service.ErrWindowOrder):
		return "The start date must not be after the end date."
	case errors.Is(err, service.ErrNoWeekdays), errors.Is(err, service.ErrInvalidWeekday):
		return "Days look like <code>mon-fri</code>, <code>mon,wed,fri</code>, <code>1,3,5</code> or <code>weekends</code>."
	case errors.Is(err, errBadTaskID):
		return "Task id must be a number, e.g. /delete 12"
	default:
		return fmt.Sprintf("Error: %s", escape(err.Error()))
	}
}
