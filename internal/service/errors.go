package service

import "errors"

// Validation errors returned by TaskService. Callers match them with errors.Is;
// the wrapped message carries the offending value.
var (
	ErrTextRequired   = errors.New("task text is required")
	ErrUnknownKind    = errors.New("unknown task kind")
	ErrUnknownMode    = errors.New("unknown reminder mode")
	ErrDueRequired    = errors.New("reminder requires both due date and time")
	ErrWeeklyRequired = errors.New("weekly reminder requires start date, end date and time")
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime    = errors.New("invalid time, expected HH:MM")
	ErrWindowOrder    = errors.New("start date must be on or before end date")
	ErrNoWeekdays     = errors.New("select at least one weekday")
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrTaskNotFound   = errors.New("task not found")
)
