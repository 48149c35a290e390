package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-reminder/internal/model"
)

func TestAgendaItems(t *testing.T) {
	weekly := weekdayReminder()
	weekly.ID = 2
	weekly.DueTime = "07:30"

	tasks := []model.Task{
		onceReminder(1, "2024-01-02", "09:00"),
		weekly,
		onceReminder(3, "2024-01-03", "09:00"),
		{ID: 4, Text: "plain", Kind: model.KindTask, DueDate: "2024-01-02", DueTime: "10:00"},
		onceReminder(5, "2024-01-02", "00:00"),
	}

	items := AgendaItems(tasks, at(2, 12, 0))
	require.Len(t, items, 3)
	assert.Equal(t, uint(5), items[0].Task.ID)
	assert.Equal(t, uint(2), items[1].Task.ID)
	assert.Equal(t, at(2, 7, 30), items[1].At)
	assert.Equal(t, uint(1), items[2].Task.ID)
}

func TestAgendaItems_WeeklyOffDay(t *testing.T) {
	// 2024-01-06 is a Saturday.
	items := AgendaItems([]model.Task{weekdayReminder()}, at(6, 6, 0))
	assert.Empty(t, items)
}

func TestAgendaService_DailyAgenda(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTask(ctx, f.user, TaskInput{
		Text: "pay <rent>", Kind: model.KindReminder, DueDate: "2024-01-01", DueTime: "09:00",
	})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.user, TaskInput{
		Text: "standup", Kind: model.KindReminder, Mode: model.ModeWeekly,
		StartDate: "2024-01-01", EndDate: "2024-01-31", DueTime: "08:30", DaysOfWeek: model.Weekdays{1},
	})
	require.NoError(t, err)

	agenda := NewAgendaService(f.repo, time.UTC)
	text, err := agenda.DailyAgenda(ctx, *f.user, at(1, 8, 45))
	require.NoError(t, err)

	assert.Contains(t, text, "Today's reminders")
	assert.Contains(t, text, "Mon, 01 Jan 2024")
	assert.Contains(t, text, "✔️ 08:30 standup <i>(weekly)</i>")
	assert.Contains(t, text, "⏰ 09:00 pay &lt;rent&gt;")

	empty, err := agenda.DailyAgenda(ctx, *f.user, at(2, 8, 0))
	require.NoError(t, err)
	assert.Contains(t, empty, "nothing scheduled today")
}
