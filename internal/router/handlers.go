package router

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"navigator-bot/internal/chat"
	"navigator-bot/internal/dialogue"
	"navigator-bot/internal/store"
)

const (
	failureText       = "⚠️ Что-то пошло не так. Попробуйте ещё раз чуть позже."
	noEventsAlert     = "Мероприятий пока нет."
	nothingToDrop     = "Нечего удалять."
	eventGoneAlert    = "Мероприятие удалено."
	alreadyGoneAlert  = "Мероприятие уже удалено."
	droppedAlert      = "Удалено!"
	calendarMissing   = "⚠️ Файл календаря загружается."
	statsDisabledText = "Статистика не настроена."
	deleteLabelRunes  = 15
)

var keycaps = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

func numberIcon(i int) string {
	if i < len(keycaps) {
		return keycaps[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func backMarkup(token, text string) *chat.Markup {
	return chat.NewMarkup(chat.Row(chat.TokenButton(text, token)))
}

func mainMenuMarkup() *chat.Markup {
	return chat.NewMarkup(
		chat.Row(chat.TokenButton("📂 Меню разделов", TokenSections)),
		chat.Row(chat.TokenButton("🤖 Спросить робота", TokenAskAI)),
		chat.Row(
			chat.TokenButton("🔥 Актуальные мероприятия", TokenListEvents),
			chat.TokenButton("📅 Календарь", TokenCalendar),
		),
		chat.Row(
			chat.TokenButton("✅ Вступить", TokenJoin),
			chat.TokenButton("💡 Идея", TokenIdea),
		),
	)
}

func panelMarkup() *chat.Markup {
	return chat.NewMarkup(
		chat.Row(chat.TokenButton("➕ Добавить мероприятие", TokenAddEvent)),
		chat.Row(chat.TokenButton("📢 Рассылка (сообщение всем)", TokenBroadcast)),
		chat.Row(chat.TokenButton("👀 Просмотреть мероприятия", TokenListEvents)),
		chat.Row(chat.TokenButton("❌ Удалить мероприятие", TokenDeleteMenu)),
	)
}

func (r *Router) sectionsMarkup() *chat.Markup {
	m := chat.NewMarkup()
	for _, s := range r.content.Sections {
		m.Rows = append(m.Rows, chat.Row(chat.TokenButton(s.Button, s.Token)))
	}
	m.Rows = append(m.Rows, chat.Row(chat.TokenButton("🔙 На главную", TokenMainMenu)))
	return m
}

// localFile resolves a content path and reports whether the file exists.
func (r *Router) localFile(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	path := r.content.MediaPath(p)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return path, false
	}
	return path, true
}

// sendWithImage sends caption under the image at p, falling back to a
// plain text message when the image is absent or rejected.
func (r *Router) sendWithImage(ctx context.Context, chatID int64, p, caption string, markup *chat.Markup) {
	if path, ok := r.localFile(p); ok {
		_, err := r.env.Transport.SendMedia(ctx, chatID, path, caption, markup)
		if err == nil {
			return
		}
		r.logger.Warn("failed to send image, falling back to text", "path", path, "error", err)
	}
	r.send(ctx, chatID, caption, markup)
}

func (r *Router) handleStart(ctx context.Context, in chat.Inbound) (string, error) {
	r.sendWithImage(ctx, in.ChatID, r.content.MainImage, r.content.Welcome, mainMenuMarkup())
	return "", nil
}

func (r *Router) handleMainMenu(ctx context.Context, in chat.Inbound) (string, error) {
	r.replace(ctx, in)
	r.sendWithImage(ctx, in.ChatID, r.content.MainImage, r.content.MainMenu, mainMenuMarkup())
	return "", nil
}

func (r *Router) handleSections(ctx context.Context, in chat.Inbound) (string, error) {
	r.replace(ctx, in)
	r.send(ctx, in.ChatID, r.content.SectionsCaption, r.sectionsMarkup())
	return "", nil
}

func (r *Router) handleSection(ctx context.Context, in chat.Inbound) (string, error) {
	sec, ok := r.content.Section(in.ActionToken)
	if !ok {
		return "", nil
	}
	r.replace(ctx, in)
	r.sendWithImage(ctx, in.ChatID, sec.Image, sec.Text, backMarkup(TokenSections, "🔙 Назад"))
	return "", nil
}

func (r *Router) handleCalendar(ctx context.Context, in chat.Inbound) (string, error) {
	path, ok := r.localFile(r.content.Calendar.File)
	if !ok {
		return calendarMissing, nil
	}
	if _, err := r.env.Transport.SendFile(ctx, in.ChatID, path, r.content.Calendar.Caption); err != nil {
		r.logger.Warn("failed to send calendar", "path", path, "error", err)
		return calendarMissing, nil
	}
	return "", nil
}

func (r *Router) handleAskAIScreen(ctx context.Context, in chat.Inbound) (string, error) {
	r.replace(ctx, in)
	r.send(ctx, in.ChatID, r.content.AskAI, backMarkup(TokenMainMenu, "🔙 Назад"))
	return "", nil
}

func (r *Router) handleListEvents(ctx context.Context, in chat.Inbound) (string, error) {
	events, err := r.env.Events.ListEvents(ctx)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return noEventsAlert, nil
	}

	var b strings.Builder
	b.WriteString("🗓 <b>АКТУАЛЬНЫЕ МЕРОПРИЯТИЯ:</b>\n\n")
	m := chat.NewMarkup()
	for i, ev := range events {
		icon := numberIcon(i)
		fmt.Fprintf(&b, "%s <b>%s</b>\n➖➖➖➖➖➖\n", icon, ev.ShortText)
		m.Rows = append(m.Rows, chat.Row(chat.TokenButton(icon+" Подробнее", fmt.Sprintf("%s%d", PrefixViewEvent, ev.ID))))
	}
	m.Rows = append(m.Rows, chat.Row(chat.TokenButton("🔙 Назад", TokenMainMenu)))

	r.replace(ctx, in)
	r.send(ctx, in.ChatID, b.String(), m)
	return "", nil
}

func (r *Router) handleViewEvent(ctx context.Context, in chat.Inbound) (string, error) {
	id, err := parseID(in.ActionToken, PrefixViewEvent)
	if err != nil {
		return eventGoneAlert, nil
	}
	ev, err := r.env.Events.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return eventGoneAlert, nil
	}
	if err != nil {
		return "", err
	}

	text := "📢 <b>ПОДРОБНОСТИ:</b>\n\n" + ev.LongText
	back := backMarkup(TokenListEvents, "🔙 К списку")
	r.replace(ctx, in)
	if ev.MediaRef != "" {
		if _, err := r.env.Transport.SendMedia(ctx, in.ChatID, ev.MediaRef, text, back); err == nil {
			return "", nil
		}
		r.logger.Warn("failed to send event photo", "event_id", ev.ID)
	}
	r.send(ctx, in.ChatID, text, back)
	return "", nil
}

func (r *Router) startFlow(f dialogue.Flow) handlerFunc {
	return func(ctx context.Context, in chat.Inbound) (string, error) {
		if !r.engine.IsAdminFlow(f) {
			r.replace(ctx, in)
		}
		return "", r.engine.Start(ctx, r.env, in, f)
	}
}

func (r *Router) handlePanel(ctx context.Context, in chat.Inbound) (string, error) {
	r.send(ctx, in.ChatID, "🛠 <b>Панель администратора:</b>", panelMarkup())
	return "", nil
}

func (r *Router) handleStats(ctx context.Context, in chat.Inbound) (string, error) {
	if r.stats == nil {
		return statsDisabledText, nil
	}
	rep, err := r.stats.Build(ctx)
	if err != nil {
		return "", err
	}
	r.send(ctx, in.ChatID, rep.Format(), nil)
	return "", nil
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}

func (r *Router) handleDeleteMenu(ctx context.Context, in chat.Inbound) (string, error) {
	events, err := r.env.Events.ListEvents(ctx)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return nothingToDrop, nil
	}
	m := chat.NewMarkup()
	for _, ev := range events {
		label := "❌ " + truncate(ev.ShortText, deleteLabelRunes)
		m.Rows = append(m.Rows, chat.Row(chat.TokenButton(label, fmt.Sprintf("%s%d", PrefixConfirmDrop, ev.ID))))
	}
	m.Rows = append(m.Rows, chat.Row(chat.TokenButton("🔙 Отмена", TokenMainMenu)))
	r.send(ctx, in.ChatID, "Выберите, что удалить:", m)
	return "", nil
}

func (r *Router) handleConfirmDelete(ctx context.Context, in chat.Inbound) (string, error) {
	id, err := parseID(in.ActionToken, PrefixConfirmDrop)
	if err != nil {
		return alreadyGoneAlert, nil
	}
	ev, err := r.env.Events.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return alreadyGoneAlert, nil
	}
	if err != nil {
		return "", err
	}
	if err := r.env.Events.DeleteEvent(ctx, id); err != nil {
		return "", err
	}
	r.logger.Info("event deleted", "event_id", id, "admin_id", in.SenderID, "short_text", ev.ShortText)
	r.replace(ctx, in)
	return droppedAlert, nil
}
