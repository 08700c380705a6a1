package dialogue

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"navigator-bot/internal/broadcast"
	"navigator-bot/internal/chat"
)

type Flow string

const (
	FlowJoin      Flow = "join"
	FlowIdea      Flow = "idea"
	FlowAddEvent  Flow = "admin_add_event"
	FlowBroadcast Flow = "admin_broadcast"
)

// Scratch keys.
const (
	KeyFIO       = "fio"
	KeyAge       = "age"
	KeyGrade     = "grade"
	KeyDirection = "direction"
	KeyBio       = "bio"
	KeyIdea      = "idea"
	KeyShortText = "short_text"
	KeyLongText  = "long_text"
	KeyPhoto     = "photo"
	KeyText      = "text"
)

// ErrValidation marks input a step does not accept.
var ErrValidation = errors.New("invalid step input")

type ValidationError struct {
	Step string
	Hint string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("step %s: %s", e.Step, e.Hint) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Input is the part of an inbound message a form step consumes.
type Input struct {
	Text     string
	MediaRef string
}

type validator func(key string, in Input) (string, error)

type terminalAction func(ctx context.Context, env *Env, in chat.Inbound, fields map[string]string) error

type step struct {
	key    string
	prompt string
	accept validator
}

type flowDef struct {
	admin  bool
	steps  []step
	finish terminalAction
}

var noPhotoAnswers = map[string]bool{
	"нет":      true,
	"no":       true,
	"no photo": true,
	"без фото": true,
	"-":        true,
}

func acceptText(key string, in Input) (string, error) {
	v := strings.TrimSpace(in.Text)
	if v == "" {
		return "", &ValidationError{Step: key, Hint: "⚠️ Нужен текстовый ответ."}
	}
	return v, nil
}

// acceptPhoto takes a media reference or an explicit "no photo" answer;
// the latter is stored as an empty value.
func acceptPhoto(key string, in Input) (string, error) {
	if in.MediaRef != "" {
		return in.MediaRef, nil
	}
	if noPhotoAnswers[strings.ToLower(strings.TrimSpace(in.Text))] {
		return "", nil
	}
	return "", &ValidationError{Step: key, Hint: "⚠️ Это не похоже на фото."}
}

func defaultFlows() map[Flow]*flowDef {
	return map[Flow]*flowDef{
		FlowJoin: {
			steps: []step{
				{key: KeyFIO, prompt: "📝 <b>Анкета вступления</b>\nВведите ваши ФИО:", accept: acceptText},
				{key: KeyAge, prompt: "Сколько вам лет?", accept: acceptText},
				{key: KeyGrade, prompt: "Из какого вы класса? (Например, 8Б)", accept: acceptText},
				{key: KeyDirection, prompt: "Какое направление вам интересно? (Спорт, Медиа...)", accept: acceptText},
				{key: KeyBio, prompt: "Расскажите немного о себе:", accept: acceptText},
			},
			finish: finishJoin,
		},
		FlowIdea: {
			steps: []step{
				{key: KeyIdea, prompt: "💡 <b>Есть идея?</b>\nОпиши её одним сообщением:", accept: acceptText},
			},
			finish: finishIdea,
		},
		FlowAddEvent: {
			admin: true,
			steps: []step{
				{key: KeyShortText, prompt: "📝 Введите КРАТКОЕ описание (для списка).", accept: acceptText},
				{key: KeyLongText, prompt: "📝 Введите ПОЛНОЕ описание.", accept: acceptText},
				{key: KeyPhoto, prompt: "🖼 Пришлите фото или напишите 'нет'.", accept: acceptPhoto},
			},
			finish: finishAddEvent,
		},
		FlowBroadcast: {
			admin: true,
			steps: []step{
				{key: KeyText, prompt: "✍️ Введите текст сообщения для ВСЕХ пользователей:", accept: acceptText},
				{key: KeyPhoto, prompt: "🖼 Прикрепите фото или напишите 'нет'.", accept: acceptPhoto},
			},
			finish: finishBroadcast,
		},
	}
}

func homeMarkup() *chat.Markup {
	return chat.NewMarkup(chat.Row(chat.TokenButton("🏠 В главное меню", TokenMainMenu)))
}

func finishJoin(ctx context.Context, env *Env, in chat.Inbound, f map[string]string) error {
	text := fmt.Sprintf("✅ <b>Новая заявка на вступление!</b>\n"+
		"👤 От: %s\n"+
		"📝 ФИО: %s\n"+
		"🎂 Возраст: %s\n"+
		"🏫 Класс: %s\n"+
		"🎯 Направление: %s\n"+
		"💬 О себе: %s",
		html.EscapeString(in.Sender()),
		html.EscapeString(f[KeyFIO]),
		html.EscapeString(f[KeyAge]),
		html.EscapeString(f[KeyGrade]),
		html.EscapeString(f[KeyDirection]),
		html.EscapeString(f[KeyBio]))
	if _, err := env.Transport.SendText(ctx, env.AdminChat, text, nil); err != nil {
		return fmt.Errorf("notify admins: %w", err)
	}
	env.reply(ctx, in, "✅ Спасибо! Заявка отправлена.", homeMarkup())
	return nil
}

func finishIdea(ctx context.Context, env *Env, in chat.Inbound, f map[string]string) error {
	text := fmt.Sprintf("💡 <b>Новая ИДЕЯ!</b>\n👤 От: %s\n💬 Суть: %s",
		html.EscapeString(in.Sender()), html.EscapeString(f[KeyIdea]))
	if _, err := env.Transport.SendText(ctx, env.AdminChat, text, nil); err != nil {
		return fmt.Errorf("notify admins: %w", err)
	}
	env.reply(ctx, in, "✅ Идея отправлена!", homeMarkup())
	return nil
}

// finishAddEvent snapshots recipients before inserting so a failed user
// listing leaves nothing half done.
func finishAddEvent(ctx context.Context, env *Env, in chat.Inbound, f map[string]string) error {
	recipients, err := env.Users.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	id, err := env.Events.InsertEvent(ctx, f[KeyShortText], f[KeyLongText], f[KeyPhoto])
	if err != nil {
		return err
	}
	env.logger().Info("event published", "event_id", id, "admin_id", in.SenderID)
	env.reply(ctx, in, "✅ Мероприятие добавлено!", nil)

	summary := fmt.Sprintf("⚡ <b>НОВОЕ МЕРОПРИЯТИЕ!</b>\n\n%s\n\n👉 <i>Жми кнопку 'Актуальные мероприятия' в меню!</i>", f[KeyShortText])
	res := env.Broadcaster.Dispatch(ctx, broadcast.Payload{Text: summary}, recipients)
	env.reply(ctx, in, fmt.Sprintf("Рассылка завершена. Получили: %d из %d чел.", res.Delivered, res.Attempted), nil)
	return nil
}

func finishBroadcast(ctx context.Context, env *Env, in chat.Inbound, f map[string]string) error {
	recipients, err := env.Users.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	env.reply(ctx, in, "🚀 Начинаю рассылку...", nil)
	res := env.Broadcaster.Dispatch(ctx, broadcast.Payload{Text: f[KeyText], MediaRef: f[KeyPhoto]}, recipients)
	env.reply(ctx, in, fmt.Sprintf("✅ Рассылка завершена. Получили: %d чел.", res.Delivered), nil)
	return nil
}
