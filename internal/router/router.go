// Package router classifies inbound messages and button presses and
// dispatches them to menu handlers or the dialogue engine.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"navigator-bot/internal/analytics"
	"navigator-bot/internal/chat"
	"navigator-bot/internal/content"
	"navigator-bot/internal/dialogue"
	"navigator-bot/internal/store"
)

// Action tokens and commands.
const (
	CmdStart = "/start"
	CmdPanel = "/panel"
	CmdStats = "/stats"

	TokenMainMenu     = dialogue.TokenMainMenu
	TokenCancel       = dialogue.TokenCancel
	TokenSections     = "menu_sections"
	TokenCalendar     = "get_calendar"
	TokenListEvents   = "list_events"
	TokenAskAI        = "ask_ai"
	TokenJoin         = "join_movement"
	TokenIdea         = "send_idea"
	TokenAddEvent     = "add_event"
	TokenBroadcast    = "broadcast_msg"
	TokenDeleteMenu   = "del_event_menu"
	PrefixSection     = "sec_"
	PrefixViewEvent   = "view_event_"
	PrefixConfirmDrop = "del_conf_"
)

type Admins interface {
	IsAdmin(chatID, userID int64) bool
}

type Reporter interface {
	Build(ctx context.Context) (analytics.Report, error)
}

type handlerFunc func(ctx context.Context, in chat.Inbound) (alert string, err error)

type route struct {
	admin bool
	fn    handlerFunc
}

// Router is stateless apart from its collaborators; it is safe for
// concurrent use by different senders.
type Router struct {
	env     *dialogue.Env
	engine  *dialogue.Engine
	content *content.Content
	admins  Admins
	stats   Reporter
	logger  *slog.Logger
	now     func() time.Time

	exact    map[string]route
	prefixes []prefixRoute
}

type prefixRoute struct {
	prefix string
	route
}

type Option func(*Router)

// WithStats enables the /stats command.
func WithStats(r Reporter) Option { return func(rt *Router) { rt.stats = r } }

func New(env *dialogue.Env, engine *dialogue.Engine, c *content.Content, admins Admins, opts ...Option) *Router {
	r := &Router{
		env:     env,
		engine:  engine,
		content: c,
		admins:  admins,
		logger:  slog.Default(),
		now:     time.Now,
	}
	if env.Logger != nil {
		r.logger = env.Logger
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("component", "router")

	r.exact = map[string]route{
		CmdStart:        {fn: r.handleStart},
		TokenMainMenu:   {fn: r.handleMainMenu},
		TokenSections:   {fn: r.handleSections},
		TokenCalendar:   {fn: r.handleCalendar},
		TokenListEvents: {fn: r.handleListEvents},
		TokenAskAI:      {fn: r.handleAskAIScreen},
		TokenJoin:       {fn: r.startFlow(dialogue.FlowJoin)},
		TokenIdea:       {fn: r.startFlow(dialogue.FlowIdea)},
		CmdPanel:        {admin: true, fn: r.handlePanel},
		CmdStats:        {admin: true, fn: r.handleStats},
		TokenAddEvent:   {admin: true, fn: r.startFlow(dialogue.FlowAddEvent)},
		TokenBroadcast:  {admin: true, fn: r.startFlow(dialogue.FlowBroadcast)},
		TokenDeleteMenu: {admin: true, fn: r.handleDeleteMenu},
	}
	r.prefixes = []prefixRoute{
		{PrefixSection, route{fn: r.handleSection}},
		{PrefixViewEvent, route{fn: r.handleViewEvent}},
		{PrefixConfirmDrop, route{admin: true, fn: r.handleConfirmDelete}},
	}
	return r
}

// Handle processes one inbound envelope. Classification order: cancel,
// active flow, known command or token, free text in a direct chat, ignore.
// Button presses are always acknowledged.
func (r *Router) Handle(ctx context.Context, in chat.Inbound) error {
	log := r.logger.With("user_id", in.SenderID, "chat_id", in.ChatID)
	command := commandOf(in)
	if command != "" {
		log = log.With("token", command)
	}

	if in.IsDirect() && !in.IsCallback() || command == CmdStart {
		r.register(ctx, in, log)
	}

	alert, err := r.dispatch(ctx, in, command, log)
	if in.IsCallback() {
		if ackErr := r.env.Transport.Acknowledge(ctx, in.CallbackID, alert); ackErr != nil {
			log.Debug("failed to acknowledge button", "error", ackErr)
		}
	} else if alert != "" {
		r.send(ctx, in.ChatID, alert, nil)
	}
	if err != nil {
		log.Error("handler failed", "error", err)
	}
	return err
}

func (r *Router) dispatch(ctx context.Context, in chat.Inbound, command string, log *slog.Logger) (string, error) {
	if command == TokenCancel {
		if _, err := r.engine.Cancel(ctx, r.env, in); err != nil {
			return "", err
		}
		return r.handleMainMenu(ctx, in)
	}

	if !in.IsCallback() && command == "" {
		handled, err := r.engine.Advance(ctx, r.env, in)
		if handled || err != nil {
			return "", err
		}
	}

	if command != "" {
		rt, ok := r.lookup(command)
		if ok {
			if rt.admin && !r.isAdmin(in) {
				log.Warn("admin action from non-admin ignored")
				return "", nil
			}
			alert, err := rt.fn(ctx, in)
			if err != nil && isStorage(err) {
				r.send(ctx, in.ChatID, failureText, nil)
			}
			return alert, err
		}
		if in.IsCallback() {
			log.Debug("unknown action token")
			return "", nil
		}
	}

	if in.IsDirect() && strings.TrimSpace(in.Text) != "" {
		return "", dialogue.AskAI(ctx, r.env, in)
	}
	return "", nil
}

func (r *Router) lookup(command string) (route, bool) {
	if rt, ok := r.exact[command]; ok {
		return rt, true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(command, p.prefix) {
			return p.route, true
		}
	}
	return route{}, false
}

func (r *Router) isAdmin(in chat.Inbound) bool {
	return r.admins != nil && r.admins.IsAdmin(in.ChatID, in.SenderID)
}

func (r *Router) register(ctx context.Context, in chat.Inbound, log *slog.Logger) {
	if in.SenderID == 0 {
		return
	}
	u := store.User{ID: in.SenderID, Handle: in.SenderHandle, JoinedAt: r.now().UTC()}
	if err := r.env.Users.AddUser(ctx, u); err != nil {
		log.Warn("failed to register user", "error", err)
	}
}

// commandOf returns the action token of a button press or the command of
// a slash message ("/start@navigator_bot arg" yields "/start"). Plain
// text yields "".
func commandOf(in chat.Inbound) string {
	if in.IsCallback() {
		return in.ActionToken
	}
	text := strings.TrimSpace(in.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	switch cmd {
	case CmdStart, CmdPanel, CmdStats:
		return cmd
	}
	return ""
}

func isStorage(err error) bool {
	var se *store.StorageError
	return errors.As(err, &se)
}

func (r *Router) send(ctx context.Context, chatID int64, text string, markup *chat.Markup) {
	if _, err := r.env.Transport.SendText(ctx, chatID, text, markup); err != nil {
		r.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

// replace deletes the message that carried the pressed button, if any.
func (r *Router) replace(ctx context.Context, in chat.Inbound) {
	if !in.IsCallback() || in.MessageRef.IsZero() {
		return
	}
	if err := r.env.Transport.DeleteMessage(ctx, in.MessageRef); err != nil {
		r.logger.Debug("failed to delete menu message", "chat_id", in.ChatID, "error", err)
	}
}

func parseID(command, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(command, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id in %q: %w", command, err)
	}
	return id, nil
}
