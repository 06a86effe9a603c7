package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"appforge/internal/codegen"
	"appforge/internal/llm/client"
	"appforge/internal/models"
	"appforge/internal/repositories"
)

// Generator runs streaming code generations. Implemented by codegen.Facade.
type Generator interface {
	GenerateAndStream(ctx context.Context, app *models.App, userID uint, message string, provider client.Provider) (string, <-chan codegen.Frame, error)
	GenerateAppName(ctx context.Context, provider client.Provider, initPrompt string) string
	ActiveTopic(appID uint) (string, bool)
	Cache() *client.SessionCache
}

// ErrNotOwner is returned when a caller operates on an app it does not own.
var ErrNotOwner = errors.New("app belongs to another user")

type AppService interface {
	CreateApp(ctx context.Context, userID uint, initPrompt string, genType models.CodeGenType, provider client.Provider) (*models.App, error)
	Get(ctx context.Context, id uint) (*models.App, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.App, error)
	Rename(ctx context.Context, id, userID uint, name string) (*models.App, error)
	Delete(ctx context.Context, id, userID uint) error
	ChatToGenCode(ctx context.Context, appID, userID uint, message string, provider client.Provider) (string, <-chan codegen.Frame, error)
	ActiveTopic(appID uint) (string, bool)
}

type appService struct {
	apps      repositories.AppRepository
	history   ChatHistoryService
	generator Generator
}

func NewAppService(apps repositories.AppRepository, history ChatHistoryService, generator Generator) AppService {
	return &appService{apps: apps, history: history, generator: generator}
}

// CreateApp registers a new app. Its display name is derived from the
// initial prompt by the model; when that fails, a prompt prefix is used.
func (s *appService) CreateApp(ctx context.Context, userID uint, initPrompt string, genType models.CodeGenType, provider client.Provider) (*models.App, error) {
	if strings.TrimSpace(initPrompt) == "" {
		return nil, errors.New("init prompt is required")
	}
	if !genType.Valid() {
		return nil, errors.Errorf("invalid generation mode: %s", genType)
	}

	name := s.generator.GenerateAppName(ctx, provider, initPrompt)
	app := &models.App{
		Name:        name,
		InitPrompt:  initPrompt,
		CodeGenType: genType,
		UserID:      userID,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, errors.Wrap(err, "create app")
	}
	log.Info().Uint("app", app.ID).Str("mode", string(genType)).Msg("app created")
	return app, nil
}

func (s *appService) Get(ctx context.Context, id uint) (*models.App, error) {
	return s.apps.FindByID(ctx, id)
}

func (s *appService) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.App, error) {
	return s.apps.ListByUser(ctx, userID, limit, offset)
}

// Rename updates an app's display name. Only the owner may rename.
func (s *appService) Rename(ctx context.Context, id, userID uint, name string) (*models.App, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}
	app, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	app.Name = name
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, errors.Wrap(err, "rename app")
	}
	return app, nil
}

// Delete removes an app along with its conversation, cached sessions and
// tool workspace binding. Only the owner may delete.
func (s *appService) Delete(ctx context.Context, id, userID uint) error {
	if _, active := s.generator.ActiveTopic(id); active {
		return errors.New("a generation is in progress for this app")
	}

	app, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.history.DeleteByApp(ctx, id); err != nil {
		return errors.Wrap(err, "delete chat history")
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete app")
	}

	// dropping the cached sessions also releases their tool workspace state
	cache := s.generator.Cache()
	for _, p := range client.AllProviders {
		cache.Invalidate(client.SessionKey{AppID: id, GenType: app.CodeGenType, Provider: p})
	}
	return nil
}

// ChatToGenCode starts a streaming generation for an app and returns the
// topic its frames are broadcast on along with the caller's subscription,
// attached before the first frame. Only one generation per app runs at a
// time; callers of a busy app should re-attach via ActiveTopic.
func (s *appService) ChatToGenCode(ctx context.Context, appID, userID uint, message string, provider client.Provider) (string, <-chan codegen.Frame, error) {
	if _, active := s.generator.ActiveTopic(appID); active {
		return "", nil, errors.New("a generation is already in progress for this app")
	}

	app, err := s.owned(ctx, appID, userID)
	if err != nil {
		return "", nil, err
	}
	return s.generator.GenerateAndStream(ctx, app, userID, message, provider)
}

func (s *appService) ActiveTopic(appID uint) (string, bool) {
	return s.generator.ActiveTopic(appID)
}

func (s *appService) owned(ctx context.Context, id, userID uint) (*models.App, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, ErrNotOwner
	}
	return app, nil
}
