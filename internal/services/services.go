package services

import (
	"gorm.io/gorm"

	"appforge/internal/repositories"
)

// Services aggregates the domain services backed by the database. The app
// service needs a Generator and is wired separately once the generation
// facade exists.
type Services struct {
	Users   UserService
	History ChatHistoryService
	Apps    AppService
	Keys    *KeyringService
}

// NewServices constructs the database-backed services. Apps is filled in by
// WireGenerator once the generation facade is available, since the facade
// itself persists through History.
func NewServices(db *gorm.DB) *Services {
	userRepo := repositories.NewUserRepository(db)
	historyRepo := repositories.NewChatHistoryRepository(db)

	return &Services{
		Users:   NewUserService(userRepo),
		History: NewChatHistoryService(historyRepo),
		Keys:    NewKeyringService(),
	}
}

// WireGenerator completes the container with the app service, which depends
// on the generation facade.
func (s *Services) WireGenerator(db *gorm.DB, generator Generator) {
	s.Apps = NewAppService(repositories.NewAppRepository(db), s.History, generator)
}
