package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// Repository exposes media persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).First(&media, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *Repository) FindByObjectKey(ctx context.Context, objectKey string) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).Where("object_key = ?", objectKey).First(&media).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *Repository) FindByPublicURL(ctx context.Context, publicURL string) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).Where("public_url = ?", publicURL).First(&media).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

// List returns one page of media rows, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Media, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Media
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{}).Error
}
