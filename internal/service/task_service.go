package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"task-reminder/internal/model"
	"task-reminder/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Text       string
	Kind       model.Kind
	Mode       model.Mode
	DueDate    string
	DueTime    string
	StartDate  string
	EndDate    string
	DaysOfWeek model.Weekdays
}

// TaskEdit carries an edit. Date and time apply to once reminders only; a nil
// pointer keeps the stored value and an empty string clears it.
type TaskEdit struct {
	Text    string
	DueDate *string
	DueTime *string
}

// TaskService validates task mutations, persists them and keeps the reminder
// engine informed after every change.
type TaskService struct {
	taskRepo  *repository.TaskRepository
	reminders *ReminderService
}

func NewTaskService(taskRepo *repository.TaskRepository, reminders *ReminderService) *TaskService {
	return &TaskService{taskRepo: taskRepo, reminders: reminders}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	task, err := s.buildTask(input)
	if err != nil {
		return nil, err
	}
	task.UserID = user.ID

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	if task.IsReminder() {
		s.reminders.ScheduleReminder(task)
	}
	return &task, nil
}

// EditTask updates a task's text and, for once reminders, its due date and time,
// then reschedules it.
func (s *TaskService) EditTask(ctx context.Context, user *model.User, taskID uint, edit TaskEdit) (*model.Task, error) {
	text := strings.TrimSpace(edit.Text)
	if text == "" {
		return nil, ErrTextRequired
	}

	task, err := s.GetTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}

	task.Text = text
	if task.IsReminder() && task.Mode == model.ModeOnce {
		if edit.DueDate != nil {
			date := strings.TrimSpace(*edit.DueDate)
			if date != "" {
				if _, ok := ParseDate(date, s.location()); !ok {
					return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
				}
			}
			task.DueDate = date
		}
		if edit.DueTime != nil {
			clock := strings.TrimSpace(*edit.DueTime)
			if clock != "" {
				if _, _, ok := ParseClock(clock); !ok {
					return nil, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
				}
			}
			task.DueTime = clock
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	if task.IsReminder() {
		s.reminders.ScheduleReminder(*task)
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// DeleteTask removes the task and then disarms its reminders. A failed delete
// leaves the reminder armed along with the row.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Delete(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	s.reminders.CancelReminder(task.ID)
	return task, nil
}

// NextFire reports when the next notification for a task goes off.
func (s *TaskService) NextFire(taskID uint) (Pending, bool) {
	return s.reminders.Status(taskID)
}

func (s *TaskService) location() *time.Location {
	if s.reminders == nil {
		return time.Local
	}
	return s.reminders.Location()
}

func (s *TaskService) buildTask(input TaskInput) (model.Task, error) {
	task := model.Task{
		Text: strings.TrimSpace(input.Text),
		Kind: input.Kind,
	}
	if task.Text == "" {
		return task, ErrTextRequired
	}
	if task.Kind == "" {
		task.Kind = model.KindTask
	}

	switch task.Kind {
	case model.KindTask:
		// Plain tasks keep due fields as free-form display strings.
		task.DueDate = strings.TrimSpace(input.DueDate)
		task.DueTime = strings.TrimSpace(input.DueTime)
		return task, nil
	case model.KindReminder:
	default:
		return task, fmt.Errorf("%w: %q", ErrUnknownKind, input.Kind)
	}

	task.Mode = input.Mode
	if task.Mode == "" {
		task.Mode = model.ModeOnce
	}
	loc := s.location()

	switch task.Mode {
	case model.ModeOnce:
		task.DueDate = strings.TrimSpace(input.DueDate)
		task.DueTime = strings.TrimSpace(input.DueTime)
		if task.DueDate == "" || task.DueTime == "" {
			return task, ErrDueRequired
		}
		if _, ok := ParseDate(task.DueDate, loc); !ok {
			return task, fmt.Errorf("%w: %q", ErrInvalidDate, task.DueDate)
		}
		if _, _, ok := ParseClock(task.DueTime); !ok {
			return task, fmt.Errorf("%w: %q", ErrInvalidTime, task.DueTime)
		}
		return task, nil
	case model.ModeWeekly:
		task.StartDate = strings.TrimSpace(input.StartDate)
		task.EndDate = strings.TrimSpace(input.EndDate)
		task.DueTime = strings.TrimSpace(input.DueTime)
		if task.StartDate == "" || task.EndDate == "" || task.DueTime == "" {
			return task, ErrWeeklyRequired
		}
		start, ok := ParseDate(task.StartDate, loc)
		if !ok {
			return task, fmt.Errorf("%w: %q", ErrInvalidDate, task.StartDate)
		}
		end, ok := ParseDate(task.EndDate, loc)
		if !ok {
			return task, fmt.Errorf("%w: %q", ErrInvalidDate, task.EndDate)
		}
		if start.After(end) {
			return task, fmt.Errorf("%w: %s > %s", ErrWindowOrder, task.StartDate, task.EndDate)
		}
		if _, _, ok := ParseClock(task.DueTime); !ok {
			return task, fmt.Errorf("%w: %q", ErrInvalidTime, task.DueTime)
		}
		days := input.DaysOfWeek.Normalize()
		if len(days) == 0 {
			return task, ErrNoWeekdays
		}
		for _, d := range days {
			if d < time.Sunday || d > time.Saturday {
				return task, fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
			}
		}
		task.DaysOfWeek = days
		return task, nil
	default:
		return task, fmt.Errorf("%w: %q", ErrUnknownMode, input.Mode)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays parses day sets such as "mon-fri", "1,3,5", "mon,wed",
// "weekdays", "weekends" or "daily".
func ParseWeekdays(raw string) (model.Weekdays, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return nil, ErrNoWeekdays
	case "weekdays":
		raw = "1-5"
	case "weekends":
		raw = "0,6"
	case "daily", "all":
		raw = "0-6"
	}

	var days model.Weekdays
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if from, to, isRange := strings.Cut(part, "-"); isRange {
			lo, err := parseWeekday(from)
			if err != nil {
				return nil, err
			}
			hi, err := parseWeekday(to)
			if err != nil {
				return nil, err
			}
			for d := lo; ; d = (d + 1) % 7 {
				days = append(days, d)
				if d == hi {
					break
				}
			}
			continue
		}
		d, err := parseWeekday(part)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	days = days.Normalize()
	if len(days) == 0 {
		return nil, ErrNoWeekdays
	}
	return days, nil
}

func parseWeekday(token string) (time.Weekday, error) {
	token = strings.TrimSpace(token)
	if d, ok := weekdayNames[token]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, token)
	}
	return time.Weekday(n), nil
}
