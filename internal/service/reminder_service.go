package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
)

// PreAlertLead is how long before the due instant the early warning fires.
const PreAlertLead = 2 * time.Minute

// Stage is the pending step of a scheduled reminder.
type Stage int

const (
	StagePreAlert Stage = iota + 1
	StageExact
)

func (s Stage) String() string {
	switch s {
	case StagePreAlert:
		return "pre-alert"
	case StageExact:
		return "exact"
	default:
		return "unscheduled"
	}
}

// Pending describes the next fire of a scheduled reminder.
type Pending struct {
	TaskID uint
	Stage  Stage
	// Target is the due instant of the occurrence being tracked.
	Target time.Time
	// FireAt is when the armed timer goes off.
	FireAt time.Time

	task model.Task
}

// ReminderSource yields every reminder task in the store.
type ReminderSource interface {
	ListReminders(ctx context.Context) ([]model.Task, error)
}

// ReminderService is the scheduling engine: it turns reminder tasks into armed
// timers and emits a pre-alert and an exact-time notification per occurrence.
// It only reads tasks; callers report every create, edit and delete.
type ReminderService struct {
	mu       sync.Mutex
	clock    clock.Clock
	loc      *time.Location
	timers   *TimerRegistry
	source   ReminderSource
	notifier Notifier
	log      zerolog.Logger
	pending  map[uint]Pending

	// seq counts caller mutations; mutated records the seq of each task's
	// latest ScheduleReminder or CancelReminder while a store load is in flight.
	seq      uint64
	mutated  map[uint]uint64
	inflight int
}

func NewReminderService(source ReminderSource, notifier Notifier, clk clock.Clock, loc *time.Location, log zerolog.Logger) *ReminderService {
	if clk == nil {
		clk = clock.New()
	}
	if loc == nil {
		loc = time.Local
	}
	s := &ReminderService{
		clock:    clk,
		loc:      loc,
		source:   source,
		notifier: notifier,
		log:      log,
		pending:  make(map[uint]Pending),
		mutated:  make(map[uint]uint64),
	}
	s.timers = NewTimerRegistry(clk, &s.mu)
	return s
}

// Location is the wall-clock zone reminders are interpreted in.
func (s *ReminderService) Location() *time.Location {
	return s.loc
}

// ScheduleReminder (re)arms the timers for task. Any timers already armed for
// the task id are cancelled first, so calling it after every edit is safe.
func (s *ReminderService) ScheduleReminder(task model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markMutatedLocked(task.ID)
	s.scheduleLocked(task, time.Time{})
}

// CancelReminder disarms both the primary and the chained exact-time timer.
// No notification fires for the task after it returns unless it is scheduled again.
func (s *ReminderService) CancelReminder(taskID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markMutatedLocked(taskID)
	s.cancelLocked(taskID)
}

// ScheduleAllReminders loads the store snapshot and syncs timers to it.
// On a load error the timers already armed are left alone. Tasks scheduled or
// cancelled by callers while the load runs keep their newer state.
func (s *ReminderService) ScheduleAllReminders(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("load reminders: no task source")
	}

	s.mu.Lock()
	since := s.seq
	s.inflight++
	s.mu.Unlock()

	tasks, err := s.source.ListReminders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.endLoadLocked()
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	s.syncLocked(tasks, since)
	return nil
}

// Sync makes the armed timers match tasks: reminders absent from the snapshot
// are cancelled and every reminder in it is rescheduled.
func (s *ReminderService) Sync(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(tasks, s.seq)
}

// syncLocked applies a snapshot taken when the mutation counter stood at since.
// Tasks mutated after that are skipped; their timers are already current.
func (s *ReminderService) syncLocked(tasks []model.Task, since uint64) {
	present := make(map[uint]struct{}, len(tasks))
	for _, t := range tasks {
		present[t.ID] = struct{}{}
	}
	for id := range s.pending {
		if _, ok := present[id]; !ok && !s.mutatedSince(id, since) {
			s.cancelLocked(id)
		}
	}

	skipped := 0
	for _, t := range tasks {
		if s.mutatedSince(t.ID, since) {
			skipped++
			continue
		}
		if s.unchangedLocked(t) {
			continue
		}
		s.scheduleLocked(t, time.Time{})
	}

	s.log.Debug().
		Int("tasks", len(tasks)).
		Int("skipped", skipped).
		Int("armed", len(s.pending)).
		Msg("reminders synced")
}

func (s *ReminderService) markMutatedLocked(taskID uint) {
	s.seq++
	if s.inflight > 0 {
		s.mutated[taskID] = s.seq
	}
}

func (s *ReminderService) mutatedSince(taskID uint, since uint64) bool {
	seq, ok := s.mutated[taskID]
	return ok && seq > since
}

func (s *ReminderService) endLoadLocked() {
	s.inflight--
	if s.inflight == 0 {
		clear(s.mutated)
	}
}

// unchangedLocked reports whether task is already armed for the occurrence it
// would be armed for now. Such timers are left running, so a pre-alert that is
// due but still waiting on the lock is not replaced by an exact-only timer.
func (s *ReminderService) unchangedLocked(task model.Task) bool {
	p, ok := s.pending[task.ID]
	if !ok || !sameSchedule(p.task, task) {
		return false
	}
	target, ok := s.nextTarget(task, s.now())
	return ok && target.Equal(p.Target)
}

func sameSchedule(a, b model.Task) bool {
	return a.UserID == b.UserID &&
		a.Text == b.Text &&
		a.Kind == b.Kind &&
		a.Mode == b.Mode &&
		a.DueDate == b.DueDate &&
		a.DueTime == b.DueTime &&
		a.StartDate == b.StartDate &&
		a.EndDate == b.EndDate &&
		a.DaysOfWeek.Normalize().String() == b.DaysOfWeek.Normalize().String()
}

// Status reports the pending step for a task, if it is scheduled.
func (s *ReminderService) Status(taskID uint) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[taskID]
	return p, ok
}

// ActiveCount returns the number of scheduled reminders.
func (s *ReminderService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every timer.
func (s *ReminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers.CancelAll()
	s.pending = make(map[uint]Pending)
}

func (s *ReminderService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// scheduleLocked arms the next occurrence of task due strictly after
// max(now, after).
func (s *ReminderService) scheduleLocked(task model.Task, after time.Time) {
	s.cancelLocked(task.ID)
	if !task.IsReminder() {
		return
	}

	now := s.now()
	if after.Before(now) {
		after = now
	}
	target, ok := s.nextTarget(task, after)
	if !ok {
		s.log.Debug().Uint("task_id", task.ID).Str("mode", string(task.Mode)).Msg("no future occurrence, nothing scheduled")
		return
	}

	preAlertAt := target.Add(-PreAlertLead)
	switch {
	case preAlertAt.After(now):
		s.armLocked(PrimaryKey(task.ID), Pending{TaskID: task.ID, Stage: StagePreAlert, Target: target, FireAt: preAlertAt, task: task}, now, func() {
			s.onPreAlert(task, target)
		})
	case target.After(now):
		s.armLocked(PrimaryKey(task.ID), Pending{TaskID: task.ID, Stage: StageExact, Target: target, FireAt: target, task: task}, now, func() {
			s.onExact(task, target)
		})
	default:
		// nextTarget only yields instants after now; an elapsed occurrence is never fired.
		s.log.Debug().Uint("task_id", task.ID).Time("target", target).Msg("occurrence already elapsed")
	}
}

func (s *ReminderService) nextTarget(task model.Task, after time.Time) (time.Time, bool) {
	switch task.Mode {
	case model.ModeWeekly:
		return NextWeeklyOccurrence(task, after.In(s.loc))
	case model.ModeOnce:
		due, ok := ParseDueTimestamp(task.DueDate, task.DueTime, s.loc)
		if !ok || !due.After(after) {
			return time.Time{}, false
		}
		return due, true
	default:
		return time.Time{}, false
	}
}

func (s *ReminderService) armLocked(key string, p Pending, now time.Time, fn func()) {
	s.timers.Arm(key, p.FireAt.Sub(now), fn)
	s.pending[p.TaskID] = p
	s.log.Debug().
		Uint("task_id", p.TaskID).
		Str("stage", p.Stage.String()).
		Time("fire_at", p.FireAt).
		Time("target", p.Target).
		Msg("reminder armed")
}

func (s *ReminderService) cancelLocked(taskID uint) {
	primary := s.timers.Cancel(PrimaryKey(taskID))
	exact := s.timers.Cancel(ExactKey(taskID))
	delete(s.pending, taskID)
	if primary || exact {
		s.log.Debug().Uint("task_id", taskID).Msg("reminder cancelled")
	}
}

// onPreAlert runs with s.mu held by the timer registry.
func (s *ReminderService) onPreAlert(task model.Task, target time.Time) {
	s.notify(task, TimingBefore)

	// Fixed offset rather than target-now, so a late pre-alert still leaves a gap.
	fireAt := s.now().Add(PreAlertLead)
	s.timers.Arm(ExactKey(task.ID), PreAlertLead, func() {
		s.onExact(task, target)
	})
	s.pending[task.ID] = Pending{TaskID: task.ID, Stage: StageExact, Target: target, FireAt: fireAt, task: task}
}

// onExact runs with s.mu held by the timer registry. Weekly reminders move
// straight on to their next occurrence; once reminders end here.
func (s *ReminderService) onExact(task model.Task, target time.Time) {
	s.notify(task, TimingNow)
	delete(s.pending, task.ID)

	if task.IsWeekly() {
		s.scheduleLocked(task, target)
	}
}

func (s *ReminderService) notify(task model.Task, timing Timing) {
	s.log.Info().Uint("task_id", task.ID).Str("timing", string(timing)).Msg("reminder fired")
	if s.notifier != nil {
		s.notifier.Notify(task, timing)
	}
}
