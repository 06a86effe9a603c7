package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"appforge/internal/models"
)

type ChatHistoryRepository interface {
	Create(ctx context.Context, row *models.ChatHistory) error
	// ListBefore returns rows for an app created strictly before the cursor,
	// newest first. A zero cursor means "from the latest".
	ListBefore(ctx context.Context, appID uint, before time.Time, limit int) ([]models.ChatHistory, error)
	// ListLatest returns the newest rows for an app (newest first) with an
	// offset, used to seed fresh model sessions.
	ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error)
	DeleteByApp(ctx context.Context, appID uint) error
}

type chatHistoryRepository struct {
	db *gorm.DB
}

func NewChatHistoryRepository(db *gorm.DB) ChatHistoryRepository {
	return &chatHistoryRepository{db: db}
}

func (r *chatHistoryRepository) Create(ctx context.Context, row *models.ChatHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *chatHistoryRepository) ListBefore(ctx context.Context, appID uint, before time.Time, limit int) ([]models.ChatHistory, error) {
	var rows []models.ChatHistory
	q := r.db.WithContext(ctx).Where("app_id = ?", appID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	if err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatHistoryRepository) ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error) {
	var rows []models.ChatHistory
	q := r.db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatHistoryRepository) DeleteByApp(ctx context.Context, appID uint) error {
	return r.db.WithContext(ctx).Where("app_id = ?", appID).Delete(&models.ChatHistory{}).Error
}
