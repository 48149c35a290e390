package service

import (
	"github.com/rs/zerolog"

	"task-reminder/internal/model"
)

// Timing labels which of the two notifications a fire is.
type Timing string

const (
	TimingBefore Timing = "2 minutes before"
	TimingNow    Timing = "now"
)

// Notifier presents a reminder to its owner. Notify is called while the
// scheduling engine holds its lock and must return promptly.
type Notifier interface {
	Notify(task model.Task, timing Timing)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(task model.Task, timing Timing)

func (f NotifierFunc) Notify(task model.Task, timing Timing) {
	f(task, timing)
}

// LogNotifier writes every notification to the log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(task model.Task, timing Timing) {
	n.log.Info().
		Uint("task_id", task.ID).
		Uint("user_id", task.UserID).
		Str("timing", string(timing)).
		Str("when", WhenLabel(task)).
		Msg(task.Text)
}

// MultiNotifier fans a notification out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(task model.Task, timing Timing) {
	for _, n := range m {
		if n != nil {
			n.Notify(task, timing)
		}
	}
}
