package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"task-reminder/internal/calendar"
	"task-reminder/internal/config"
	"task-reminder/internal/logging"
	"task-reminder/internal/model"
	"task-reminder/internal/repository"
	"task-reminder/internal/service"
)

// userTasks loads the tasks of the user behind a Telegram id.
func userTasks(ctx context.Context, configPath string, telegramID int64) ([]model.Task, *time.Location, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	log := logging.NewWithWriter(cfg.Log, os.Stderr).Level(zerolog.WarnLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, logging.Component(log, "db"))
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	user, err := repository.NewUserRepository(db).FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("no user with telegram id %d", telegramID)
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	tasks, err := repository.NewTaskRepository(db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, loc, nil
}

func listCmd(configPath *string) *cobra.Command {
	var telegramID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a user's tasks and their next occurrence",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, loc, err := userTasks(cmd.Context(), *configPath, telegramID)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now().In(loc))
			return nil
		},
	}
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "Telegram user id")
	_ = cmd.MarkFlagRequired("telegram-id")
	return cmd
}

func printTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for _, task := range tasks {
		fmt.Fprintf(w, "#%d\t%s\t%s\n", task.ID, task.Kind, task.Text)
		if task.IsWeekly() {
			fmt.Fprintf(w, "\t%s\n", service.FormatWeeklySummary(task))
		} else if due := service.FormatDue(task.DueDate, task.DueTime); due != "" {
			fmt.Fprintf(w, "\t%s\n", due)
		}
		if next, ok := nextOccurrence(task, now); ok {
			fmt.Fprintf(w, "\tnext: %s\n", next.Format("2006-01-02 15:04"))
		}
	}
}

func nextOccurrence(task model.Task, now time.Time) (time.Time, bool) {
	switch {
	case task.IsWeekly():
		return service.NextWeeklyOccurrence(task, now)
	case task.IsReminder():
		due, ok := service.ParseDueTimestamp(task.DueDate, task.DueTime, now.Location())
		if !ok || !due.After(now) {
			return time.Time{}, false
		}
		return due, true
	default:
		return time.Time{}, false
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var (
		telegramID int64
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's reminders as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, loc, err := userTasks(cmd.Context(), *configPath, telegramID)
			if err != nil {
				return err
			}
			data, err := calendar.Export(tasks, time.Now().In(loc))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "Telegram user id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("telegram-id")
	return cmd
}
