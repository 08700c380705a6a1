package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"navigator-bot/internal/llm"
	"navigator-bot/internal/store"
)

const defaultTimeout = 60 * time.Second

// ExternalServiceError is returned when the AI backend fails or answers
// with nothing usable.
type ExternalServiceError struct {
	Err error
}

func (e *ExternalServiceError) Error() string { return fmt.Sprintf("ai backend: %v", e.Err) }

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Assistant answers member questions with the configured LLM.
type Assistant struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

func New(client llm.Client, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{client: client, timeout: defaultTimeout, logger: logger.With("component", "assistant")}
}

// Ask sends contextText as the system prompt and question as the user turn.
func (a *Assistant) Ask(ctx context.Context, contextText, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: contextText},
		{Role: llm.RoleUser, Content: question},
	}
	resp, err := a.client.Generate(ctx, msgs)
	if err != nil {
		return "", &ExternalServiceError{Err: err}
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", &ExternalServiceError{Err: fmt.Errorf("empty answer from model %s", resp.Model)}
	}
	a.logger.Debug("LLM response",
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"total_tokens", resp.TotalTokens)
	return answer, nil
}

// BuildContext appends the current events listing to the static base prompt.
func BuildContext(base string, events []store.Event) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\nТЕКУЩИЕ МЕРОПРИЯТИЯ ШКОЛЫ ИЗ БАЗЫ ДАННЫХ:\n")
	if len(events) == 0 {
		b.WriteString("Пока нет добавленных мероприятий.")
		return b.String()
	}
	for i, ev := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", ev.ShortText, ev.LongText)
	}
	return b.String()
}
