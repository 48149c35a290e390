package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-reminder/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := NewDB(dsn, zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestTaskRepository_CreateListDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)

	owner, err := users.UpsertFromTelegram(ctx, 1001, "Ada", "", "ada")
	require.NoError(t, err)

	weekly := &model.Task{
		UserID:     owner.ID,
		Text:       "standup",
		Kind:       model.KindReminder,
		Mode:       model.ModeWeekly,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
		DueTime:    "09:00",
		DaysOfWeek: model.Weekdays{time.Monday, time.Wednesday},
	}
	plain := &model.Task{UserID: owner.ID, Text: "buy milk", Kind: model.KindTask}
	require.NoError(t, tasks.Create(ctx, weekly))
	require.NoError(t, tasks.Create(ctx, plain))
	assert.NotZero(t, weekly.ID)

	list, err := tasks.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "standup", list[0].Text)
	assert.Equal(t, model.Weekdays{time.Monday, time.Wednesday}, list[0].DaysOfWeek)

	reminders, err := tasks.ListReminders(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, weekly.ID, reminders[0].ID)

	require.NoError(t, tasks.Delete(ctx, owner.ID, weekly.ID))
	_, err = tasks.FindByID(ctx, owner.ID, weekly.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTaskRepository_FindByIDScopedToUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)

	alice, err := users.UpsertFromTelegram(ctx, 1, "Alice", "", "")
	require.NoError(t, err)
	bob, err := users.UpsertFromTelegram(ctx, 2, "Bob", "", "")
	require.NoError(t, err)

	task := &model.Task{UserID: alice.ID, Text: "secret", Kind: model.KindTask}
	require.NoError(t, tasks.Create(ctx, task))

	_, err = tasks.FindByID(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := tasks.FindByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Text)
}

func TestUserRepository_UpsertUpdatesProfile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	first, err := users.UpsertFromTelegram(ctx, 42, "Old", "", "old")
	require.NoError(t, err)
	second, err := users.UpsertFromTelegram(ctx, 42, "New", "Name", "new")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stored, err := users.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.FirstName)
	assert.Equal(t, "new", stored.Username)

	byID, err := users.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), byID.TelegramID)

	all, err := users.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
