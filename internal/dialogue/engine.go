package dialogue

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"navigator-bot/internal/assistant"
	"navigator-bot/internal/chat"
	"navigator-bot/internal/journal"
	"navigator-bot/internal/session"
)

const (
	TokenCancel   = "cancel_action"
	TokenMainMenu = "main_menu"
)

const (
	failureNotice = "⚠️ Что-то пошло не так. Попробуйте ещё раз чуть позже."
	apologyNotice = "😔 Извините, робот сейчас не может ответить. Попробуйте позже или обратитесь к куратору."
	thinkingText  = "🤖 <i>Думаю...</i>"
)

// Engine walks members through the form flows. It holds only the flow
// table; all state lives in the session store reached through Env.
type Engine struct {
	flows map[Flow]*flowDef
}

func NewEngine() *Engine {
	return &Engine{flows: defaultFlows()}
}

// IsAdminFlow reports whether starting f requires the admin audience.
func (e *Engine) IsAdminFlow(f Flow) bool {
	def, ok := e.flows[f]
	return ok && def.admin
}

// Steps lists the scratch keys collected by f in order.
func (e *Engine) Steps(f Flow) []string {
	def, ok := e.flows[f]
	if !ok {
		return nil
	}
	keys := make([]string, len(def.steps))
	for i, s := range def.steps {
		keys[i] = s.key
	}
	return keys
}

func cancelMarkup() *chat.Markup {
	return chat.NewMarkup(chat.Row(chat.TokenButton("🔙 Отмена / В меню", TokenCancel)))
}

// Start enters the first step of f, discarding any previous session.
func (e *Engine) Start(ctx context.Context, env *Env, in chat.Inbound, f Flow) error {
	def, ok := e.flows[f]
	if !ok {
		return fmt.Errorf("unknown flow %q", f)
	}
	unlock := env.lock(in.SenderID)
	defer unlock()

	if _, err := env.Transport.SendText(ctx, in.ChatID, def.steps[0].prompt, cancelMarkup()); err != nil {
		return fmt.Errorf("send first prompt: %w", err)
	}
	if err := env.Sessions.Clear(ctx, in.SenderID); err != nil {
		return err
	}
	if err := env.Sessions.Set(ctx, in.SenderID, session.State{Flow: string(f)}, nil); err != nil {
		return err
	}
	env.logger().Debug("flow started", "user_id", in.SenderID, "flow", f)
	return nil
}

// Advance feeds a plain reply into the sender's active flow. It returns
// false without side effects when the sender has no active flow.
//
// The session is committed only after the step (and, on the last step,
// the terminal action) succeeded.
func (e *Engine) Advance(ctx context.Context, env *Env, in chat.Inbound) (bool, error) {
	unlock := env.lock(in.SenderID)
	defer unlock()

	sess, ok, err := env.Sessions.Get(ctx, in.SenderID)
	if err != nil {
		return true, err
	}
	if !ok || sess.State.IsNone() {
		return false, nil
	}
	log := env.logger().With("user_id", in.SenderID, "state", sess.State.String())

	def, known := e.flows[Flow(sess.State.Flow)]
	if !known || sess.State.Step < 0 || sess.State.Step >= len(def.steps) {
		log.Warn("dropping session with unknown state")
		return true, env.Sessions.Clear(ctx, in.SenderID)
	}
	st := def.steps[sess.State.Step]

	value, err := st.accept(st.key, Input{Text: in.Text, MediaRef: in.MediaRef})
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			log.Debug("step input rejected", "step", st.key)
			env.reply(ctx, in, ve.Hint+"\n"+st.prompt, cancelMarkup())
			return true, nil
		}
		return true, err
	}

	next := sess.State.Step + 1
	if next < len(def.steps) {
		if err := env.Sessions.Set(ctx, in.SenderID, session.State{Flow: sess.State.Flow, Step: next}, map[string]string{st.key: value}); err != nil {
			env.reply(ctx, in, failureNotice, cancelMarkup())
			return true, err
		}
		env.reply(ctx, in, def.steps[next].prompt, cancelMarkup())
		return true, nil
	}

	fields := maps.Clone(sess.Scratch)
	if fields == nil {
		fields = make(map[string]string, 1)
	}
	fields[st.key] = value
	if err := def.finish(ctx, env, in, fields); err != nil {
		log.Error("terminal action failed", "error", err)
		env.reply(ctx, in, failureNotice, cancelMarkup())
		return true, err
	}
	if err := env.Sessions.Clear(ctx, in.SenderID); err != nil {
		return true, err
	}
	log.Info("flow completed", "flow", sess.State.Flow)
	return true, nil
}

// Cancel drops the sender's session. It reports whether a flow was active.
// It never runs a terminal action.
func (e *Engine) Cancel(ctx context.Context, env *Env, in chat.Inbound) (bool, error) {
	unlock := env.lock(in.SenderID)
	defer unlock()

	sess, ok, err := env.Sessions.Get(ctx, in.SenderID)
	if err != nil {
		return false, err
	}
	if err := env.Sessions.Clear(ctx, in.SenderID); err != nil {
		return false, err
	}
	active := ok && !sess.State.IsNone()
	if active {
		env.logger().Debug("flow cancelled", "user_id", in.SenderID, "state", sess.State.String())
	}
	return active, nil
}

// AskAI answers a free-text question with the assistant, using a fresh
// snapshot of the events listing as context. Assistant failures become
// an apology and are not returned.
func AskAI(ctx context.Context, env *Env, in chat.Inbound) error {
	placeholder, err := env.Transport.SendText(ctx, in.ChatID, thinkingText, nil)
	if err != nil {
		return fmt.Errorf("send placeholder: %w", err)
	}
	log := env.logger().With("user_id", in.SenderID)

	events, err := env.Events.ListEvents(ctx)
	if err != nil {
		env.edit(ctx, placeholder, failureNotice)
		return err
	}

	entry := journal.Entry{Timestamp: time.Now().UTC(), UserID: in.SenderID, Question: in.Text}
	answer, err := env.Assistant.Ask(ctx, assistant.BuildContext(env.BasePrompt, events), in.Text)
	if err != nil {
		var ext *assistant.ExternalServiceError
		log.Warn("assistant failed", "error", err, "external", errors.As(err, &ext))
		entry.Failed = true
		env.record(entry)
		env.edit(ctx, placeholder, apologyNotice)
		return nil
	}
	entry.Answer = answer
	env.record(entry)
	env.edit(ctx, placeholder, answer)
	return nil
}

func (e *Env) record(entry journal.Entry) {
	if e.Journal == nil {
		return
	}
	if err := e.Journal.Append(entry); err != nil {
		e.logger().Warn("failed to record interaction", "error", err)
	}
}

// reply sends a message to the chat the inbound came from. Delivery
// failures are logged only.
func (e *Env) reply(ctx context.Context, in chat.Inbound, text string, markup *chat.Markup) {
	if _, err := e.Transport.SendText(ctx, in.ChatID, text, markup); err != nil {
		e.logger().Warn("failed to send reply", "chat_id", in.ChatID, "error", err)
	}
}

func (e *Env) edit(ctx context.Context, ref chat.MessageRef, text string) {
	if err := e.Transport.EditText(ctx, ref, text); err != nil {
		e.logger().Warn("failed to edit message", "chat_id", ref.ChatID, "error", err)
	}
}
