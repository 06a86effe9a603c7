package services

import (
	"context"
	"errors"
	"testing"

	"appforge/internal/codegen"
	"appforge/internal/llm/client"
	"appforge/internal/models"
	"appforge/internal/repositories"
)

type fakeGenerator struct {
	name        string
	topic       string
	activeTopic string
	cache       *client.SessionCache

	streamedApp      *models.App
	streamedMessage  string
	streamedProvider client.Provider
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		name:  "Todo Board",
		topic: "topic-1",
		cache: client.NewSessionCache(nil),
	}
}

func (f *fakeGenerator) GenerateAndStream(_ context.Context, app *models.App, _ uint, message string, provider client.Provider) (string, <-chan codegen.Frame, error) {
	f.streamedApp = app
	f.streamedMessage = message
	f.streamedProvider = provider
	frames := make(chan codegen.Frame)
	close(frames)
	return f.topic, frames, nil
}

func (f *fakeGenerator) GenerateAppName(context.Context, client.Provider, string) string {
	return f.name
}

func (f *fakeGenerator) ActiveTopic(uint) (string, bool) {
	return f.activeTopic, f.activeTopic != ""
}

func (f *fakeGenerator) Cache() *client.SessionCache {
	return f.cache
}

func newAppHarness(t *testing.T) (AppService, *fakeGenerator, ChatHistoryService) {
	t.Helper()
	db := newTestDB(t)
	gen := newFakeGenerator()
	history := NewChatHistoryService(repositories.NewChatHistoryRepository(db))
	svc := NewAppService(repositories.NewAppRepository(db), history, gen)
	return svc, gen, history
}

func TestCreateApp(t *testing.T) {
	svc, _, _ := newAppHarness(t)

	app, err := svc.CreateApp(context.Background(), 7, "build me a todo board", models.CodeGenHTML, client.ProviderOpenAI)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	if app.ID == 0 {
		t.Fatal("app was not persisted")
	}
	if app.Name != "Todo Board" {
		t.Fatalf("Name = %q", app.Name)
	}
	if app.UserID != 7 || app.CodeGenType != models.CodeGenHTML {
		t.Fatalf("app = %+v", app)
	}

	got, err := svc.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.InitPrompt != "build me a todo board" {
		t.Fatalf("InitPrompt = %q", got.InitPrompt)
	}
}

func TestCreateAppValidation(t *testing.T) {
	svc, _, _ := newAppHarness(t)
	ctx := context.Background()

	if _, err := svc.CreateApp(ctx, 1, "  ", models.CodeGenHTML, client.ProviderOpenAI); err == nil {
		t.Fatal("expected error for blank prompt")
	}
	if _, err := svc.CreateApp(ctx, 1, "hi", models.CodeGenType("flash"), client.ProviderOpenAI); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestChatToGenCode(t *testing.T) {
	svc, gen, _ := newAppHarness(t)
	ctx := context.Background()

	app, err := svc.CreateApp(ctx, 3, "a landing page", models.CodeGenMultiFile, client.ProviderClaude)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}

	topic, frames, err := svc.ChatToGenCode(ctx, app.ID, 3, "make the hero section blue", client.ProviderClaude)
	if err != nil {
		t.Fatalf("ChatToGenCode() error = %v", err)
	}
	if topic != gen.topic {
		t.Fatalf("topic = %q", topic)
	}
	if frames == nil {
		t.Fatal("expected an attached frame subscription")
	}
	if gen.streamedApp == nil || gen.streamedApp.ID != app.ID {
		t.Fatalf("streamed app = %+v", gen.streamedApp)
	}
	if gen.streamedMessage != "make the hero section blue" {
		t.Fatalf("streamed message = %q", gen.streamedMessage)
	}
	if gen.streamedProvider != client.ProviderClaude {
		t.Fatalf("streamed provider = %q", gen.streamedProvider)
	}
}

func TestChatToGenCodeRejectsBusyApp(t *testing.T) {
	svc, gen, _ := newAppHarness(t)
	ctx := context.Background()

	app, err := svc.CreateApp(ctx, 3, "a landing page", models.CodeGenHTML, client.ProviderOpenAI)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}

	gen.activeTopic = "already-running"
	if _, _, err := svc.ChatToGenCode(ctx, app.ID, 3, "again", client.ProviderOpenAI); err == nil {
		t.Fatal("expected busy error")
	}
}

func TestChatToGenCodeUnknownApp(t *testing.T) {
	svc, _, _ := newAppHarness(t)
	if _, _, err := svc.ChatToGenCode(context.Background(), 999, 1, "hello", client.ProviderOpenAI); err == nil {
		t.Fatal("expected error for unknown app")
	}
}

func TestDeleteAppRemovesConversation(t *testing.T) {
	svc, gen, history := newAppHarness(t)
	ctx := context.Background()

	app, err := svc.CreateApp(ctx, 3, "something", models.CodeGenHTML, client.ProviderOpenAI)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	if err := history.AddMessage(ctx, app.ID, 3, "hello", models.MessageTypeUser); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}

	if err := svc.Delete(ctx, app.ID, 3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, app.ID); err == nil {
		t.Fatal("app should be gone")
	}
	rows, err := history.ListLatest(ctx, app.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListLatest() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("conversation rows remain: %+v", rows)
	}

	// deletion is refused while a generation is running
	app2, err := svc.CreateApp(ctx, 3, "another", models.CodeGenHTML, client.ProviderOpenAI)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}
	gen.activeTopic = "running"
	if err := svc.Delete(ctx, app2.ID, 3); err == nil {
		t.Fatal("expected busy error on delete")
	}
}

func TestOwnershipChecks(t *testing.T) {
	svc, _, _ := newAppHarness(t)
	ctx := context.Background()

	app, err := svc.CreateApp(ctx, 3, "mine", models.CodeGenHTML, client.ProviderOpenAI)
	if err != nil {
		t.Fatalf("CreateApp() error = %v", err)
	}

	if err := svc.Delete(ctx, app.ID, 99); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Delete() by stranger = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Rename(ctx, app.ID, 99, "stolen"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Rename() by stranger = %v, want ErrNotOwner", err)
	}
	if _, _, err := svc.ChatToGenCode(ctx, app.ID, 99, "go", client.ProviderOpenAI); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("ChatToGenCode() by stranger = %v, want ErrNotOwner", err)
	}

	renamed, err := svc.Rename(ctx, app.ID, 3, "new name")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "new name" {
		t.Fatalf("Name = %q", renamed.Name)
	}
}

func TestGetUnknownApp(t *testing.T) {
	svc, _, _ := newAppHarness(t)
	if _, err := svc.Get(context.Background(), 41); !errors.Is(err, repositories.ErrAppNotFound) {
		t.Fatalf("Get() = %v, want ErrAppNotFound", err)
	}
}
