package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"task-reminder/internal/model"
	"task-reminder/internal/repository"
)

// AgendaItem is one reminder occurrence falling on the agenda day.
type AgendaItem struct {
	Task model.Task
	At   time.Time
}

// AgendaService builds the daily digest of reminders due today.
type AgendaService struct {
	taskRepo *repository.TaskRepository
	loc      *time.Location
}

func NewAgendaService(taskRepo *repository.TaskRepository, loc *time.Location) *AgendaService {
	if loc == nil {
		loc = time.Local
	}
	return &AgendaService{taskRepo: taskRepo, loc: loc}
}

// Today returns the user's reminder occurrences on now's calendar day.
func (s *AgendaService) Today(ctx context.Context, user model.User, now time.Time) ([]AgendaItem, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return AgendaItems(tasks, now.In(s.loc)), nil
}

func (s *AgendaService) DailyAgenda(ctx context.Context, user model.User, now time.Time) (string, error) {
	items, err := s.Today(ctx, user, now)
	if err != nil {
		return "", err
	}
	return RenderAgenda(items, now.In(s.loc)), nil
}

// RenderAgenda formats items as an HTML message.
func RenderAgenda(items []AgendaItem, now time.Time) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Today's reminders</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	if len(items) == 0 {
		builder.WriteString("— nothing scheduled today\n")
		return strings.TrimSpace(builder.String())
	}
	for _, item := range items {
		builder.WriteString(formatAgendaItem(item, now))
	}
	return strings.TrimSpace(builder.String())
}

// AgendaItems returns the reminder occurrences on now's calendar day, in time order.
func AgendaItems(tasks []model.Task, now time.Time) []AgendaItem {
	loc := now.Location()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var items []AgendaItem
	for _, task := range tasks {
		if !task.IsReminder() {
			continue
		}
		var at time.Time
		var ok bool
		switch task.Mode {
		case model.ModeOnce:
			at, ok = ParseDueTimestamp(task.DueDate, task.DueTime, loc)
		case model.ModeWeekly:
			at, ok = NextWeeklyOccurrence(task, dayStart.Add(-time.Nanosecond))
		}
		if !ok || at.Before(dayStart) || !at.Before(dayEnd) {
			continue
		}
		items = append(items, AgendaItem{Task: task, At: at})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.Before(items[j].At)
	})
	return items
}

func formatAgendaItem(item AgendaItem, now time.Time) string {
	icon := "⏰"
	if !item.At.After(now) {
		icon = "✔️"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s %s", icon, item.At.Format(model.ClockLayout), html.EscapeString(strings.TrimSpace(item.Task.Text))))
	if item.Task.IsWeekly() {
		sb.WriteString(" <i>(weekly)</i>")
	}
	sb.WriteByte('\n')
	return sb.String()
}
