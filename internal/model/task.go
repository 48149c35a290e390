package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes plain to-do items from reminders.
type Kind string

const (
	KindTask     Kind = "task"
	KindReminder Kind = "reminder"
)

// Mode selects single-fire or weekly recurrence for reminders.
type Mode string

const (
	ModeOnce   Mode = "once"
	ModeWeekly Mode = "weekly"
)

// Date and time layouts used by every stored date/time string.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Task represents a single item in the list: a plain task or a reminder.
type Task struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Text      string
	Kind      Kind `gorm:"index;default:task"`
	Mode      Mode
	DueDate   string
	DueTime   string
	StartDate string
	EndDate   string
	// DaysOfWeek holds weekday indices for weekly reminders, Sunday = 0.
	DaysOfWeek Weekdays `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t Task) IsReminder() bool {
	return t.Kind == KindReminder
}

func (t Task) IsWeekly() bool {
	return t.Kind == KindReminder && t.Mode == ModeWeekly
}

// Weekdays is a set of weekdays stored as a comma-separated column ("1,2,3").
type Weekdays []time.Weekday

// Contains reports whether d is in the set.
func (w Weekdays) Contains(d time.Weekday) bool {
	for _, day := range w {
		if day == d {
			return true
		}
	}
	return false
}

// Normalize returns the set sorted and without duplicates.
func (w Weekdays) Normalize() Weekdays {
	if len(w) == 0 {
		return nil
	}
	seen := make(map[time.Weekday]struct{}, len(w))
	out := make(Weekdays, 0, len(w))
	for _, d := range w {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w Weekdays) String() string {
	parts := make([]string, 0, len(w))
	for _, d := range w {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

// Value implements driver.Valuer.
func (w Weekdays) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan implements sql.Scanner.
func (w *Weekdays) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan weekdays: unsupported type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*w = nil
		return nil
	}
	var days Weekdays
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("scan weekdays %q: %w", raw, err)
		}
		days = append(days, time.Weekday(n))
	}
	*w = days
	return nil
}
