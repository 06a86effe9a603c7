package codegen

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"appforge/internal/config"
	"appforge/internal/events"
	"appforge/internal/llm/client"
	"appforge/internal/llm/tools"
	"appforge/internal/models"
)

// HistoryStore persists and loads conversation turns for generations.
type HistoryStore interface {
	AddMessage(ctx context.Context, appID, userID uint, message string, messageType models.MessageType) error
	ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error)
}

// Facade coordinates generation streaming: it resolves the session, persists
// the user turn, fans the model stream out over a topic and keeps a
// background consumer that persists and materializes the result regardless
// of whether any caller is still listening.
type Facade struct {
	factory     *client.ModelFactory
	registry    *tools.Registry
	cache       *client.SessionCache
	history     HistoryStore
	saver       *Saver
	builder     *Builder
	broadcaster *Broadcaster

	historyWindow int
	maxSteps      int

	mu     sync.Mutex
	active map[uint]string
}

func NewFacade(factory *client.ModelFactory, registry *tools.Registry, history HistoryStore, saver *Saver, builder *Builder, broadcaster *Broadcaster, genCfg config.GenerationConfig) *Facade {
	f := &Facade{
		factory:       factory,
		registry:      registry,
		history:       history,
		saver:         saver,
		builder:       builder,
		broadcaster:   broadcaster,
		historyWindow: genCfg.HistoryWindow,
		maxSteps:      genCfg.MaxSteps,
		active:        make(map[uint]string),
	}
	f.cache = client.NewSessionCache(f.buildSession)
	return f
}

// Cache exposes the session cache so callers can run its janitor.
func (f *Facade) Cache() *client.SessionCache {
	return f.cache
}

// buildSession constructs and hydrates a session for a cache miss.
func (f *Facade) buildSession(ctx context.Context, key client.SessionKey) (*client.Session, error) {
	chatModel, err := f.factory.Build(ctx, key.Provider)
	if err != nil {
		return nil, err
	}
	dir, err := f.saver.EnsureWorkspace(key.GenType, key.AppID)
	if err != nil {
		return nil, err
	}
	session, err := client.NewSession(key.Provider, key.GenType, chatModel, f.registry, dir, f.maxSteps, f.historyWindow)
	if err != nil {
		return nil, err
	}
	loaded := client.HydrateSession(ctx, f.history, session, key.AppID, f.historyWindow)
	log.Debug().Uint("app", key.AppID).Str("provider", key.Provider.String()).Int("hydrated", loaded).Msg("session constructed")
	return session, nil
}

// ActiveTopic returns the in-flight generation topic for an app, if any.
func (f *Facade) ActiveTopic(appID uint) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	topic, ok := f.active[appID]
	return topic, ok
}

// SubscribeTopic attaches a subscriber to a generation topic. Frames
// published before the subscription are not replayed.
func (f *Facade) SubscribeTopic(ctx context.Context, topic string) (<-chan Frame, error) {
	return f.broadcaster.Subscribe(ctx, topic)
}

// GenerateAndStream starts a generation for an app and returns the topic its
// frames are broadcast on, plus the caller's own subscription, attached
// before the first frame is published. The generation itself runs on a
// background context: callers detaching never cancels it.
func (f *Facade) GenerateAndStream(ctx context.Context, app *models.App, userID uint, message string, requested client.Provider) (string, <-chan Frame, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, errors.New("message is required")
	}

	// The user turn is persisted before the session is resolved: hydration
	// skips the newest row, which must be exactly this message.
	if err := f.history.AddMessage(ctx, app.ID, userID, message, models.MessageTypeUser); err != nil {
		log.Warn().Uint("app", app.ID).Err(err).Msg("save user message")
	}

	provider := client.EffectiveProvider(requested, app.CodeGenType)
	session, err := f.cache.Get(ctx, client.SessionKey{AppID: app.ID, GenType: app.CodeGenType, Provider: provider})
	if err != nil {
		return "", nil, errors.Wrap(err, "get session")
	}

	topic := uuid.NewString()
	f.mu.Lock()
	f.active[app.ID] = topic
	f.mu.Unlock()

	// The persistence consumer subscribes before anything is published so it
	// sees the complete stream.
	persistCtx, persistCancel := context.WithCancel(context.Background())
	frames, err := f.broadcaster.Subscribe(persistCtx, topic)
	if err != nil {
		persistCancel()
		f.clearActive(app.ID, topic)
		return "", nil, errors.Wrap(err, "subscribe persistence consumer")
	}

	// The initiator's subscription also attaches before the pump starts so
	// its stream begins with the first frame.
	callerFrames, err := f.broadcaster.Subscribe(ctx, topic)
	if err != nil {
		persistCancel()
		f.clearActive(app.ID, topic)
		return "", nil, errors.Wrap(err, "subscribe caller")
	}

	streamCtx := events.WithApp(context.Background(), strconv.FormatUint(uint64(app.ID), 10))
	eventCh, err := session.Stream(streamCtx, message)
	if err != nil {
		persistCancel()
		f.clearActive(app.ID, topic)
		return "", nil, errors.Wrap(err, "start stream")
	}
	events.Emit(streamCtx, events.LLMGenerate, events.NewInfo("generation started"))

	go f.persist(persistCtx, persistCancel, app, userID, frames)
	go f.pump(app, topic, eventCh)

	return topic, callerFrames, nil
}

// pump converts session events into broadcast frames, interleaving tool
// announcements and completion markers with the model's chunks.
func (f *Facade) pump(app *models.App, topic string, eventCh <-chan client.StreamEvent) {
	tracker := tools.NewExecutionTracker(f.registry)
	defer f.clearActive(app.ID, topic)

	for ev := range eventCh {
		switch ev.Kind {
		case client.EventChunk:
			f.publishChunk(topic, ev.Chunk)
		case client.EventToolRequest:
			if text := tracker.Announce(ev.Call); text != "" {
				f.publishChunk(topic, text)
			}
		case client.EventToolExecuted:
			if text := tracker.Complete(ev.Result); text != "" {
				f.publishChunk(topic, text)
			}
		case client.EventError:
			log.Error().Uint("app", app.ID).Err(ev.Err).Msg("generation stream failed")
			// The marker belongs to the tool-mediated stream format; fenced
			// modes report failure through the error frame alone.
			if app.CodeGenType == models.CodeGenVueProject {
				f.publishChunk(topic, tools.MarkerToolExecutionError)
			}
			if err := f.broadcaster.Publish(topic, Frame{Kind: FrameError, Data: ev.Err.Error()}); err != nil {
				log.Warn().Err(err).Msg("publish error frame")
			}
			return
		case client.EventDone:
			// Only tool-mediated generation carries a completion marker;
			// fenced-output modes end with the final chunk.
			if app.CodeGenType == models.CodeGenVueProject {
				f.publishChunk(topic, tools.MarkerGenerationComplete)
			}
			if err := f.broadcaster.Publish(topic, Frame{Kind: FrameDone}); err != nil {
				log.Warn().Err(err).Msg("publish done frame")
			}
			done := events.NewSuccess("generation finished")
			done.AppKey = strconv.FormatUint(uint64(app.ID), 10)
			events.Emit(context.Background(), events.LLMEventDone, done)
			return
		}
	}
}

func (f *Facade) publishChunk(topic, data string) {
	if data == "" {
		return
	}
	if err := f.broadcaster.Publish(topic, Frame{Kind: FrameChunk, Data: data}); err != nil {
		log.Warn().Str("topic", topic).Err(err).Msg("publish chunk")
	}
}

// persist accumulates the full stream and, once it terminates, records the
// assistant turn and materializes artifacts. It runs on its own context so
// it survives every caller.
func (f *Facade) persist(ctx context.Context, cancel context.CancelFunc, app *models.App, userID uint, frames <-chan Frame) {
	defer cancel()

	var buf strings.Builder
	for frame := range frames {
		switch frame.Kind {
		case FrameChunk:
			buf.WriteString(frame.Data)
		case FrameError:
			msg := "AI reply failed: " + frame.Data
			if err := f.history.AddMessage(ctx, app.ID, userID, msg, models.MessageTypeError); err != nil {
				log.Error().Uint("app", app.ID).Err(err).Msg("save error record")
			}
			return
		case FrameDone:
			f.finish(ctx, app, userID, buf.String())
			return
		}
	}
}

// finish stores the assistant turn and materializes the generated artifacts
// for the app's mode.
func (f *Facade) finish(ctx context.Context, app *models.App, userID uint, full string) {
	aiMessage := full

	switch app.CodeGenType {
	case models.CodeGenHTML:
		if res, err := ParseHTML(full); err != nil {
			log.Error().Uint("app", app.ID).Err(err).Msg("parse html result")
			aiMessage += tools.MarkerFileWriteError
		} else if _, err := f.saver.SaveHTML(app.ID, res); err != nil {
			log.Error().Uint("app", app.ID).Err(err).Msg("save html result")
			aiMessage += tools.MarkerFileWriteError
		}
	case models.CodeGenMultiFile:
		if res, err := ParseMultiFile(full); err != nil {
			log.Error().Uint("app", app.ID).Err(err).Msg("parse multi-file result")
			aiMessage += tools.MarkerFileWriteError
		} else if _, err := f.saver.SaveMultiFile(app.ID, res); err != nil {
			log.Error().Uint("app", app.ID).Err(err).Msg("save multi-file result")
			aiMessage += tools.MarkerFileWriteError
		}
	case models.CodeGenVueProject:
		// Files are already on disk from tool calls; build in the background.
		f.builder.BuildAsync(f.saver.WorkspaceDir(app.CodeGenType, app.ID))
	}

	if err := f.history.AddMessage(ctx, app.ID, userID, aiMessage, models.MessageTypeAI); err != nil {
		log.Error().Uint("app", app.ID).Err(err).Msg("save assistant message")
	}
}

func (f *Facade) clearActive(appID uint, topic string) {
	f.mu.Lock()
	if f.active[appID] == topic {
		delete(f.active, appID)
	}
	f.mu.Unlock()
}

// GenerateAppName derives a short app name from the initial request using a
// one-shot exchange. Failures fall back to a prompt prefix.
func (f *Facade) GenerateAppName(ctx context.Context, provider client.Provider, initPrompt string) string {
	fallback := initPrompt
	if len([]rune(fallback)) > 20 {
		fallback = string([]rune(fallback)[:20])
	}

	chatModel, err := f.factory.Build(ctx, provider)
	if err != nil {
		log.Warn().Err(err).Msg("app name model unavailable")
		return fallback
	}
	name, err := client.GenerateOnce(ctx, chatModel, client.AppNamePrompt(), initPrompt)
	if err != nil || strings.TrimSpace(name) == "" {
		log.Warn().Err(err).Msg("app name generation failed")
		return fallback
	}
	return name
}
