package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"appforge/internal/models"
)

// ErrAppNotFound is returned when an app id resolves to nothing, including
// soft-deleted rows.
var ErrAppNotFound = errors.New("app not found")

type AppRepository interface {
	Create(ctx context.Context, app *models.App) error
	FindByID(ctx context.Context, id uint) (*models.App, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.App, error)
	List(ctx context.Context, limit, offset int) ([]models.App, error)
	Update(ctx context.Context, app *models.App) error
	Delete(ctx context.Context, id uint) error
}

type appRepository struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db: db}
}

func (r *appRepository) Create(ctx context.Context, app *models.App) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *appRepository) FindByID(ctx context.Context, id uint) (*models.App, error) {
	var app models.App
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *appRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.App, error) {
	var apps []models.App
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *appRepository) List(ctx context.Context, limit, offset int) ([]models.App, error) {
	var apps []models.App
	q := r.db.WithContext(ctx).Order("priority DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *appRepository) Update(ctx context.Context, app *models.App) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *appRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.App{}, id).Error
}
