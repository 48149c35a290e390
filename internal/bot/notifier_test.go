package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-reminder/internal/model"
	"task-reminder/internal/service"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	block chan struct{}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeUsers map[uint]int64

func (f fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	chat, ok := f[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &model.User{ID: id, TelegramID: chat}, nil
}

func TestNotifier_DeliversToOwnerChat(t *testing.T) {
	api := &fakeSender{}
	n := NewNotifier(api, fakeUsers{7: 7007}, 0, zerolog.Nop())

	task := model.Task{ID: 1, UserID: 7, Text: "stretch", Kind: model.KindReminder, Mode: model.ModeOnce, DueDate: "2024-01-01", DueTime: "09:00"}
	n.Notify(task, service.TimingBefore)
	n.Notify(task, service.TimingNow)
	n.Stop(context.Background())

	sent := api.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(7007), sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, sent[0].ParseMode)
	assert.Contains(t, sent[0].Text, "⏳ Task Reminder")
	assert.Contains(t, sent[0].Text, "(2 minutes before)")
	assert.Contains(t, sent[1].Text, "⏰ Task Reminder")
	assert.Contains(t, sent[1].Text, "(now)")
}

func TestNotifier_UnknownUserIsSkipped(t *testing.T) {
	api := &fakeSender{}
	n := NewNotifier(api, fakeUsers{}, 0, zerolog.Nop())

	n.Notify(model.Task{ID: 1, UserID: 99, Text: "x"}, service.TimingNow)
	n.Stop(context.Background())

	assert.Empty(t, api.messages())
}

func TestNotifier_NotifyAfterStopIsIgnored(t *testing.T) {
	api := &fakeSender{}
	n := NewNotifier(api, fakeUsers{1: 1}, 0, zerolog.Nop())
	n.Stop(context.Background())

	assert.NotPanics(t, func() {
		n.Notify(model.Task{ID: 1, UserID: 1, Text: "late"}, service.TimingNow)
	})
	assert.Empty(t, api.messages())
}

func TestNotifier_FullQueueDropsWithoutBlocking(t *testing.T) {
	api := &fakeSender{block: make(chan struct{})}
	n := NewNotifier(api, fakeUsers{1: 1}, 0, zerolog.Nop())

	task := model.Task{ID: 1, UserID: 1, Text: "spam"}
	done := make(chan struct{})
	go func() {
		for i := 0; i < notifyQueueSize+10; i++ {
			n.Notify(task, service.TimingNow)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(api.block)
	n.Stop(context.Background())
	assert.LessOrEqual(t, len(api.messages()), notifyQueueSize+1)
}

func TestNotifier_StopDeadlineDropsBacklog(t *testing.T) {
	api := &fakeSender{}
	n := NewNotifier(api, fakeUsers{1: 1}, 0.5, zerolog.Nop())

	task := model.Task{ID: 1, UserID: 1, Text: "slow"}
	for i := 0; i < 5; i++ {
		n.Notify(task, service.TimingNow)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	n.Stop(ctx)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Less(t, len(api.messages()), 5)
}
