package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"appforge/internal/events"
	"appforge/internal/llm/tools"
	"appforge/internal/models"
)

type EventKind int

const (
	EventChunk EventKind = iota
	EventToolRequest
	EventToolExecuted
	EventError
	EventDone
)

// StreamEvent is one element of a generation stream: a text chunk, a tool
// lifecycle notification, a terminal error or the done sentinel.
type StreamEvent struct {
	Kind   EventKind
	Chunk  string
	Call   events.ToolCall
	Result events.ToolResult
	Err    error
}

// Session is a stateful conversation bound to one app, generation mode and
// provider. It owns the in-memory message history and a private workspace
// binding for file tools.
type Session struct {
	provider  Provider
	genType   models.CodeGenType
	chatModel model.ToolCallingChatModel
	registry  *tools.Registry
	maxSteps  int
	window    int
	sessionID string

	mu      sync.Mutex
	history []*schema.Message
}

// NewSession creates a session seeded with the mode's system prompt. The
// workspace root is registered for the session's file tools. The window
// bounds the conversation turns held in memory; the system prompt is not
// counted and never evicted. A window of 0 means unbounded.
func NewSession(provider Provider, genType models.CodeGenType, chatModel model.ToolCallingChatModel, registry *tools.Registry, workspaceRoot string, maxSteps, window int) (*Session, error) {
	system, err := SystemPrompt(genType)
	if err != nil {
		return nil, err
	}
	s := &Session{
		provider:  provider,
		genType:   genType,
		chatModel: chatModel,
		registry:  registry,
		maxSteps:  maxSteps,
		window:    window,
		sessionID: uuid.NewString(),
		history:   []*schema.Message{schema.SystemMessage(system)},
	}
	tools.SetBaseRootForSession(s.sessionID, workspaceRoot)
	return s, nil
}

// Close releases per-session tool state.
func (s *Session) Close() {
	tools.ClearSession(s.sessionID)
}

// SeedHistory inserts prior conversation turns after the system prompt.
// Intended for hydrating a freshly constructed session.
func (s *Session) SeedHistory(msgs []*schema.Message) {
	if len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seeded := make([]*schema.Message, 0, len(s.history)+len(msgs))
	seeded = append(seeded, s.history[0])
	seeded = append(seeded, msgs...)
	seeded = append(seeded, s.history[1:]...)
	s.history = seeded
	s.trimLocked()
}

// trimLocked evicts the oldest turns once the window is exceeded. The system
// prompt at index 0 always survives. Callers hold s.mu.
func (s *Session) trimLocked() {
	if s.window <= 0 {
		return
	}
	if excess := len(s.history) - 1 - s.window; excess > 0 {
		s.history = append(s.history[:1], s.history[1+excess:]...)
	}
}

// HistoryLen reports the number of messages currently held, including the
// system prompt.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// History returns a snapshot of the session's messages.
func (s *Session) History() []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) snapshotWithUser(userMessage string) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, schema.UserMessage(userMessage))
	s.trimLocked()
	out := make([]*schema.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) appendAssistant(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	s.mu.Lock()
	s.history = append(s.history, schema.AssistantMessage(content, nil))
	s.trimLocked()
	s.mu.Unlock()
}

// Stream sends a user message and returns a channel of stream events. The
// channel is closed after the done sentinel or a terminal error. The session
// records the assistant's reply in its history once streaming finishes.
func (s *Session) Stream(ctx context.Context, userMessage string) (<-chan StreamEvent, error) {
	msgs := s.snapshotWithUser(userMessage)
	out := make(chan StreamEvent, 64)

	var reader *schema.StreamReader[*schema.Message]
	var err error

	if s.genType == models.CodeGenVueProject {
		reader, err = s.streamAgent(ctx, msgs, out)
	} else {
		reader, err = s.chatModel.Stream(ctx, msgs)
	}
	if err != nil {
		return nil, err
	}

	go s.pump(reader, out)
	return out, nil
}

// streamAgent runs the tool-calling agent loop for project generation.
func (s *Session) streamAgent(ctx context.Context, msgs []*schema.Message, out chan StreamEvent) (*schema.StreamReader[*schema.Message], error) {
	allTools, err := s.registry.BuildAll()
	if err != nil {
		return nil, errors.Wrap(err, "build tools")
	}

	sink := chanSink{out: out}
	ctx = tools.ContextWithSession(ctx, s.sessionID)
	ctx = events.WithToolSink(ctx, sink)

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: s.chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: allTools,
			UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
				// A hallucinated tool must not abort the run; report it and
				// hand the model a soft error.
				callID := uuid.NewString()
				sink.ToolRequested(events.ToolCall{CallID: callID, Name: name, ArgsJSON: input})
				result := fmt.Sprintf("Error: unknown tool: %s", name)
				sink.ToolCompleted(events.ToolResult{CallID: callID, Name: name, ArgsJSON: input, Result: result})
				return result, nil
			},
		},
		MaxStep: s.maxSteps,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create agent")
	}

	return agent.Stream(ctx, msgs)
}

// pump forwards model output into the event channel and closes it when the
// upstream finishes.
func (s *Session) pump(reader *schema.StreamReader[*schema.Message], out chan StreamEvent) {
	defer close(out)
	defer reader.Close()

	var assistant strings.Builder
	for {
		msg, err := reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.appendAssistant(assistant.String())
				out <- StreamEvent{Kind: EventDone}
				return
			}
			log.Error().Err(err).Str("provider", s.provider.String()).Msg("stream recv error")
			out <- StreamEvent{Kind: EventError, Err: err}
			return
		}
		if msg == nil {
			continue
		}
		if msg.Role == schema.Assistant && msg.Content != "" {
			assistant.WriteString(msg.Content)
			out <- StreamEvent{Kind: EventChunk, Chunk: msg.Content}
		}
	}
}

// chanSink forwards tool lifecycle events into a session's stream channel.
type chanSink struct {
	out chan StreamEvent
}

func (c chanSink) ToolRequested(call events.ToolCall) {
	c.out <- StreamEvent{Kind: EventToolRequest, Call: call}
}

func (c chanSink) ToolCompleted(result events.ToolResult) {
	c.out <- StreamEvent{Kind: EventToolExecuted, Result: result}
}

// GenerateOnce runs a one-shot, non-streaming exchange against a model.
func GenerateOnce(ctx context.Context, chatModel model.ToolCallingChatModel, system, user string) (string, error) {
	msg, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("model returned no message")
	}
	return strings.TrimSpace(msg.Content), nil
}
