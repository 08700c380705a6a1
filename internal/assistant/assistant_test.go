package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"navigator-bot/internal/llm"
	"navigator-bot/internal/store"
)

type fakeLLM struct {
	resp llm.Response
	err  error
	got  []llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.got = msgs
	return f.resp, f.err
}

func TestAskSendsSystemAndUser(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Content: "  ответ  ", Model: "m"}}
	a := New(f, nil)
	got, err := a.Ask(context.Background(), "ctx", "вопрос")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got != "ответ" {
		t.Fatalf("unexpected answer %q", got)
	}
	if len(f.got) != 2 || f.got[0].Role != llm.RoleSystem || f.got[0].Content != "ctx" || f.got[1].Content != "вопрос" {
		t.Fatalf("unexpected messages: %+v", f.got)
	}
}

func TestAskWrapsBackendFailure(t *testing.T) {
	a := New(&fakeLLM{err: errors.New("503")}, nil)
	_, err := a.Ask(context.Background(), "ctx", "q")
	var ext *ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("want ExternalServiceError, got %v", err)
	}
}

func TestAskRejectsEmptyAnswer(t *testing.T) {
	a := New(&fakeLLM{resp: llm.Response{Content: "   "}}, nil)
	_, err := a.Ask(context.Background(), "ctx", "q")
	var ext *ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("want ExternalServiceError, got %v", err)
	}
}

func TestBuildContext(t *testing.T) {
	out := BuildContext("BASE\n", []store.Event{
		{ID: 2, ShortText: "Subbotnik", LongText: "Cleanup on Saturday"},
		{ID: 1, ShortText: "Quiz", LongText: "Friday"},
	})
	if !strings.HasPrefix(out, "BASE\n\n") {
		t.Fatalf("base prompt missing: %q", out)
	}
	if !strings.Contains(out, "- Subbotnik: Cleanup on Saturday\n- Quiz: Friday") {
		t.Fatalf("events not listed in order: %q", out)
	}

	empty := BuildContext("BASE", nil)
	if !strings.Contains(empty, "Пока нет добавленных мероприятий.") {
		t.Fatalf("empty listing note missing: %q", empty)
	}
}
