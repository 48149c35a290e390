package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"task-reminder/internal/model"
	"task-reminder/internal/service"
)

const (
	iconTask      = "📝"
	iconReminder  = "⏰"
	iconWeekly    = "🔁"
	iconNext      = "🔔"
	titlePreAlert = "⏳ Task Reminder"
	titleExact    = "⏰ Task Reminder"
)

// FormatAlert renders the notification sent when a reminder fires.
func FormatAlert(task model.Task, timing service.Timing) string {
	title := titleExact
	if timing == service.TimingBefore {
		title = titlePreAlert
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n", title))
	b.WriteString(fmt.Sprintf("%s (%s)", escape(normalizeText(task.Text)), timing))
	if when := service.WhenLabel(task); when != "" {
		b.WriteString("\n" + escape(when))
	}
	return b.String()
}

func formatTask(task model.Task, next *service.Pending, loc *time.Location) string {
	icon := iconTask
	switch {
	case task.IsWeekly():
		icon = iconWeekly
	case task.IsReminder():
		icon = iconReminder
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeText(task.Text))))
	if task.IsWeekly() {
		b.WriteString(fmt.Sprintf("   %s\n", escape(service.FormatWeeklySummary(task))))
	} else if due := service.FormatDue(task.DueDate, task.DueTime); due != "" {
		b.WriteString(fmt.Sprintf("   %s\n", escape(due)))
	}
	if next != nil {
		b.WriteString(fmt.Sprintf("   %s next %s at %s\n", iconNext, next.Stage, next.FireAt.In(loc).Format("2006-01-02 15:04")))
	} else if task.IsReminder() {
		b.WriteString("   💤 nothing upcoming\n")
	}
	return b.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortText(text string, maxLen int) string {
	clean := normalizeText(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
