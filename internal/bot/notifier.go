package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"task-reminder/internal/model"
	"task-reminder/internal/service"
)

const notifyQueueSize = 256

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type chatResolver interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type alert struct {
	task   model.Task
	timing service.Timing
}

// Notifier delivers reminder alerts to the owner's Telegram chat. Notify only
// enqueues, so it is safe to call with the scheduling engine's lock held.
type Notifier struct {
	api     sender
	users   chatResolver
	limiter *rate.Limiter
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan alert
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewNotifier starts the delivery worker. perSecond <= 0 disables the rate limit.
func NewNotifier(api sender, users chatResolver, perSecond float64, log zerolog.Logger) *Notifier {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		api:     api,
		users:   users,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		queue:   make(chan alert, notifyQueueSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go n.run()
	return n
}

func (n *Notifier) Notify(task model.Task, timing service.Timing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- alert{task: task, timing: timing}:
	default:
		n.log.Warn().Uint("task_id", task.ID).Str("timing", string(timing)).Msg("notify queue full, alert dropped")
	}
}

// Stop flushes queued alerts. Whatever is still queued when ctx ends is dropped.
func (n *Notifier) Stop(ctx context.Context) {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
	case <-ctx.Done():
		n.cancel()
		<-n.done
	}
	n.cancel()
}

func (n *Notifier) run() {
	defer close(n.done)
	for a := range n.queue {
		if err := n.limiter.Wait(n.ctx); err != nil {
			n.log.Warn().Uint("task_id", a.task.ID).Msg("notifier stopping, alert dropped")
			continue
		}
		if err := n.deliver(n.ctx, a); err != nil {
			n.log.Error().Err(err).Uint("task_id", a.task.ID).Str("timing", string(a.timing)).Msg("deliver alert")
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, a alert) error {
	user, err := n.users.FindByID(ctx, a.task.UserID)
	if err != nil {
		return fmt.Errorf("resolve chat for user %d: %w", a.task.UserID, err)
	}
	msg := tgbotapi.NewMessage(user.TelegramID, FormatAlert(a.task, a.timing))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}
