package service

import (
	"strconv"
	"sync"
	"time"

	"task-reminder/internal/clock"
)

// PrimaryKey is the registry key of a task's first pending wait.
func PrimaryKey(taskID uint) string {
	return strconv.FormatUint(uint64(taskID), 10)
}

// ExactKey is the registry key of the exact-time wait chained after a pre-alert.
func ExactKey(taskID uint) string {
	return PrimaryKey(taskID) + "_exact"
}

type armedTimer struct {
	timer clock.Timer
	gen   uint64
}

// TimerRegistry owns live one-shot timers keyed by task identity.
//
// Arm and Cancel must be called with guard held. Fired callbacks take guard
// themselves and run only if their entry is still the current one, so a
// Cancel that returns before the callback acquires guard always wins.
type TimerRegistry struct {
	clock  clock.Clock
	guard  sync.Locker
	gen    uint64
	timers map[string]armedTimer
}

func NewTimerRegistry(clk clock.Clock, guard sync.Locker) *TimerRegistry {
	return &TimerRegistry{
		clock:  clk,
		guard:  guard,
		timers: make(map[string]armedTimer),
	}
}

// Arm schedules fn to run once after delay, replacing any timer under key.
func (r *TimerRegistry) Arm(key string, delay time.Duration, fn func()) {
	r.Cancel(key)
	if delay < 0 {
		delay = 0
	}

	r.gen++
	gen := r.gen
	t := r.clock.AfterFunc(delay, func() { r.fire(key, gen, fn) })
	r.timers[key] = armedTimer{timer: t, gen: gen}
}

// Cancel stops and forgets the timer under key. It reports whether one was live.
func (r *TimerRegistry) Cancel(key string) bool {
	cur, ok := r.timers[key]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(r.timers, key)
	return true
}

// CancelAll stops every live timer.
func (r *TimerRegistry) CancelAll() {
	for key := range r.timers {
		r.Cancel(key)
	}
}

// Pending reports whether a live timer exists under key.
func (r *TimerRegistry) Pending(key string) bool {
	_, ok := r.timers[key]
	return ok
}

// Len returns the number of live timers.
func (r *TimerRegistry) Len() int {
	return len(r.timers)
}

func (r *TimerRegistry) fire(key string, gen uint64, fn func()) {
	r.guard.Lock()
	defer r.guard.Unlock()

	cur, ok := r.timers[key]
	if !ok || cur.gen != gen {
		return
	}
	delete(r.timers, key)
	fn()
}
