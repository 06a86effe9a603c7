package client

import (
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"

	"appforge/internal/llm/tools"
	"appforge/internal/models"
)

func newWindowedSession(t *testing.T, window int) *Session {
	t.Helper()
	s, err := NewSession(ProviderOpenAI, models.CodeGenHTML, nil, tools.NewRegistry(), t.TempDir(), 10, window)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSessionWindowEvictsOldestOnAppend(t *testing.T) {
	s := newWindowedSession(t, 4)
	s.SeedHistory([]*schema.Message{
		schema.UserMessage("u1"),
		schema.AssistantMessage("a1", nil),
		schema.UserMessage("u2"),
		schema.AssistantMessage("a2", nil),
	})

	s.snapshotWithUser("u3")
	s.appendAssistant("a3")

	if got := s.HistoryLen(); got != 5 {
		t.Fatalf("HistoryLen() = %d, want 5 (system prompt + window)", got)
	}
	history := s.History()
	if history[0].Role != schema.System {
		t.Fatal("system prompt must survive eviction")
	}
	if history[1].Content != "u2" {
		t.Fatalf("oldest surviving turn = %q, want u2", history[1].Content)
	}
	if history[4].Content != "a3" {
		t.Fatalf("newest turn = %q, want a3", history[4].Content)
	}
}

func TestSessionWindowHoldsUnderLongConversation(t *testing.T) {
	const window = 20
	s := newWindowedSession(t, window)

	seed := make([]*schema.Message, 0, window)
	for i := 1; i <= window; i++ {
		if i%2 == 1 {
			seed = append(seed, schema.UserMessage(fmt.Sprintf("seed-%d", i)))
		} else {
			seed = append(seed, schema.AssistantMessage(fmt.Sprintf("seed-%d", i), nil))
		}
	}
	s.SeedHistory(seed)

	for i := 1; i <= 10; i++ {
		s.snapshotWithUser(fmt.Sprintf("ask-%d", i))
		s.appendAssistant(fmt.Sprintf("reply-%d", i))
	}

	if got := s.HistoryLen(); got != window+1 {
		t.Fatalf("HistoryLen() = %d, want %d", got, window+1)
	}
	history := s.History()
	if history[1].Content != "ask-1" {
		t.Fatalf("oldest surviving turn = %q, want ask-1", history[1].Content)
	}
	if history[window].Content != "reply-10" {
		t.Fatalf("newest turn = %q, want reply-10", history[window].Content)
	}
}

func TestSessionWindowZeroIsUnbounded(t *testing.T) {
	s := newWindowedSession(t, 0)
	for i := 0; i < 30; i++ {
		s.snapshotWithUser("u")
		s.appendAssistant("a")
	}
	if got := s.HistoryLen(); got != 61 {
		t.Fatalf("HistoryLen() = %d, want 61", got)
	}
}
