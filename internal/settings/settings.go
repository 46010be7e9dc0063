package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

// SettingDTO is one key of the site configuration.
type SettingDTO struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertInput carries a settings write from the CMS.
type UpsertInput struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// Service exposes the site-wide configuration store.
type Service interface {
	List(ctx context.Context) ([]SettingDTO, error)
	Upsert(ctx context.Context, input UpsertInput) (*SettingDTO, error)
}

// Repository persists settings rows keyed by name.
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

func (r *Repository) List(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes the value, inserting the key when it does not exist yet.
func (r *Repository) Upsert(ctx context.Context, key, value string) (*models.Setting, error) {
	setting := &models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

type repository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key, value string) (*models.Setting, error)
}

type service struct {
	repo repository
}

// NewService constructs a settings service backed by the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]SettingDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list settings")
	}
	items := make([]SettingDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, SettingDTO{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt})
	}
	return items, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*SettingDTO, error) {
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key is required")
	}

	row, err := s.repo.Upsert(ctx, key, input.Value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert setting")
	}
	return &SettingDTO{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt}, nil
}
