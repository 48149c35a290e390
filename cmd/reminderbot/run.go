package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"task-reminder/internal/bot"
	"task-reminder/internal/config"
	"task-reminder/internal/logging"
	"task-reminder/internal/repository"
	"task-reminder/internal/service"
)

const (
	jobTimeout      = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the reminder engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log := logging.New(cfg.Log)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, logging.Component(log, "db"))
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	api, err := bot.Connect(cfg.TelegramToken, logging.Component(log, "telegram"))
	if err != nil {
		return err
	}
	notifier := bot.NewNotifier(api, userRepo, cfg.NotifyRatePerSec, logging.Component(log, "notifier"))

	reminders := service.NewReminderService(
		taskRepo,
		service.MultiNotifier{service.NewLogNotifier(logging.Component(log, "alerts")), notifier},
		nil,
		loc,
		logging.Component(log, "reminders"),
	)
	taskSvc := service.NewTaskService(taskRepo, reminders)
	agendaSvc := service.NewAgendaService(taskRepo, loc)
	telegramBot := bot.New(api, userRepo, taskSvc, agendaSvc, loc, logging.Component(log, "bot"))

	if err := reminders.ScheduleAllReminders(ctx); err != nil {
		return err
	}
	log.Info().Int("armed", reminders.ActiveCount()).Str("timezone", loc.String()).Msg("reminders scheduled")

	scheduler := service.NewSchedulerService(loc, logging.Component(log, "cron"))
	if cfg.ResyncInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ResyncInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := reminders.ScheduleAllReminders(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("resync reminders")
			}
		}); err != nil {
			return fmt.Errorf("schedule resync: %w", err)
		}
	}
	if cfg.AgendaTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.AgendaTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := telegramBot.SendDailyAgendas(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("daily agenda")
			}
		}); err != nil {
			return fmt.Errorf("schedule agenda: %w", err)
		}
	}
	scheduler.Start()

	log.Info().Msg("reminder bot started")
	botErr := telegramBot.Start(ctx)

	scheduler.Stop()
	reminders.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	notifier.Stop(shutdownCtx)

	if botErr != nil && !errors.Is(botErr, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", botErr)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
