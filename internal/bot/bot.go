package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"task-reminder/internal/calendar"
	"task-reminder/internal/model"
	"task-reminder/internal/repository"
	"task-reminder/internal/service"
)

const cbDeletePrefix = "delete:"

// Bot aggregates Telegram API with services.
type Bot struct {
	api       *tgbotapi.BotAPI
	userRepo  *repository.UserRepository
	taskSvc   *service.TaskService
	agendaSvc *service.AgendaService
	loc       *time.Location
	log       zerolog.Logger
}

// Connect authorizes against the Bot API. The returned client is shared by the
// command loop and the Notifier.
func Connect(token string, log zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{log: log}); err != nil {
		return nil, fmt.Errorf("set bot logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	return api, nil
}

func New(api *tgbotapi.BotAPI, userRepo *repository.UserRepository, taskSvc *service.TaskService, agendaSvc *service.AgendaService, loc *time.Location, log zerolog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:       api,
		userRepo:  userRepo,
		taskSvc:   taskSvc,
		agendaSvc: agendaSvc,
		loc:       loc,
		log:       log,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. Send /help for the list.")
	}

	b.log.Debug().Int64("from", msg.From.ID).Str("command", msg.Command()).Msg("command received")

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, user)
	case "task":
		return b.handleCreate(ctx, msg.Chat.ID, user, args, parseTaskArgs)
	case "remind":
		return b.handleCreate(ctx, msg.Chat.ID, user, args, parseRemindArgs)
	case "weekly":
		return b.handleCreate(ctx, msg.Chat.ID, user, args, parseWeeklyArgs)
	case "edit":
		return b.handleEdit(ctx, msg.Chat.ID, user, args)
	case "delete":
		return b.handleDelete(ctx, msg.Chat.ID, user, args)
	case "agenda":
		return b.handleAgenda(ctx, msg.Chat.ID, user)
	case "export":
		return b.handleExport(ctx, msg.Chat.ID, user)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /tasks — list tasks and upcoming alerts\n" +
	"• /task &lt;text&gt; — add a plain task\n" +
	"• /remind &lt;YYYY-MM-DD&gt; &lt;HH:MM&gt; &lt;text&gt; — one-time reminder\n" +
	"• /weekly &lt;start&gt; &lt;end&gt; &lt;HH:MM&gt; &lt;days&gt; &lt;text&gt; — weekly reminder, e.g. <code>/weekly 2024-01-01 2024-03-31 09:00 mon-fri standup</code>\n" +
	"• /edit &lt;id&gt; &lt;text&gt; [&lt;YYYY-MM-DD&gt; &lt;HH:MM&gt;] — change a task\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /agenda — today's reminders\n" +
	"• /export — download reminders as an .ics calendar\n\n" +
	"Reminders alert 2 minutes before and at the due time."

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks and remind you on time.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCreate(ctx context.Context, chatID int64, user *model.User, args string, parse func(string) (service.TaskInput, error)) error {
	input, err := parse(args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.log.Info().Uint("user_id", user.ID).Uint("task_id", task.ID).Str("kind", string(task.Kind)).Msg("task created")
	return b.sendText(chatID, "✅ Saved\n"+b.describe(*task))
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64, user *model.User, args string) error {
	id, edit, err := parseEditArgs(args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	task, err := b.taskSvc.EditTask(ctx, user, id, edit)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, "✏️ Updated\n"+b.describe(*task))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, user *model.User, args string) error {
	if strings.TrimSpace(args) == "" {
		return b.sendText(chatID, userMessage(usageError(usageDelete)))
	}
	id, err := parseTaskID(args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	task, err := b.taskSvc.DeleteTask(ctx, user, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(normalizeText(task.Text))))
}

func (b *Bot) handleAgenda(ctx context.Context, chatID int64, user *model.User) error {
	text, err := b.agendaSvc.DailyAgenda(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	data, err := calendar.Export(tasks, time.Now().In(b.loc))
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "reminders.ics", Bytes: data})
	doc.Caption = "📅 Import into any calendar app."
	_, err = b.api.Send(doc)
	return err
}

// SendDailyAgendas sends today's agenda to every user with something scheduled.
func (b *Bot) SendDailyAgendas(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now().In(b.loc)
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		items, err := b.agendaSvc.Today(ctx, user, now)
		if err != nil {
			b.log.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("build agenda")
			continue
		}
		if len(items) == 0 {
			continue
		}
		if err := b.sendText(user.TelegramID, service.RenderAgenda(items, now)); err != nil {
			b.log.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("send agenda")
		}
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}
	if !strings.HasPrefix(cb.Data, cbDeletePrefix) {
		return nil
	}

	id, err := parseTaskID(strings.TrimPrefix(cb.Data, cbDeletePrefix))
	if err != nil {
		return err
	}
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	if _, err := b.taskSvc.DeleteTask(ctx, user, id); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks yet. Add one with /task, /remind or /weekly.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your tasks</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(b.describe(task))
		builder.WriteByte('\n')
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d · %s", task.ID, shortText(task.Text, 24)), fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) describe(task model.Task) string {
	var next *service.Pending
	if p, ok := b.taskSvc.NextFire(task.ID); ok {
		next = &p
	}
	return formatTask(task, next, b.loc)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// botLogger routes the Bot API client's own logging into zerolog.
type botLogger struct {
	log zerolog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}
