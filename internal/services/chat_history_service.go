package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"appforge/internal/models"
	"appforge/internal/repositories"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 50
)

type ChatHistoryService interface {
	AddMessage(ctx context.Context, appID, userID uint, message string, messageType models.MessageType) error
	ListBefore(ctx context.Context, appID uint, before time.Time, limit int) ([]models.ChatHistory, error)
	ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error)
	DeleteByApp(ctx context.Context, appID uint) error
}

type chatHistoryService struct {
	history repositories.ChatHistoryRepository
}

func NewChatHistoryService(history repositories.ChatHistoryRepository) ChatHistoryService {
	return &chatHistoryService{history: history}
}

func (s *chatHistoryService) AddMessage(ctx context.Context, appID, userID uint, message string, messageType models.MessageType) error {
	if appID == 0 {
		return errors.New("app id is required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("message is empty")
	}
	if !messageType.Valid() {
		return errors.Errorf("invalid message type: %s", messageType)
	}
	return s.history.Create(ctx, &models.ChatHistory{
		AppID:       appID,
		UserID:      userID,
		Message:     message,
		MessageType: messageType,
	})
}

// ListBefore pages an app's conversation newest first, using before as an
// exclusive cursor. The zero time means "from the latest turn".
func (s *chatHistoryService) ListBefore(ctx context.Context, appID uint, before time.Time, limit int) ([]models.ChatHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}
	if before.IsZero() {
		before = time.Now().Add(time.Second)
	}
	return s.history.ListBefore(ctx, appID, before, limit)
}

func (s *chatHistoryService) ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}
	return s.history.ListLatest(ctx, appID, offset, limit)
}

func (s *chatHistoryService) DeleteByApp(ctx context.Context, appID uint) error {
	return s.history.DeleteByApp(ctx, appID)
}
