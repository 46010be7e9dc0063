package posts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// Repository exposes post persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new post row.
func (r *Repository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Update persists all columns of an existing post row.
func (r *Repository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error
}

// FindByID loads a post by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindBySlug loads a post by its URL slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// SlugExists reports whether the slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementViews bumps the view counter without loading the row.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// List returns one page of posts ordered newest first.
func (r *Repository) List(ctx context.Context, input ListInput, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if !input.IncludeDrafts {
		q = q.Where("published = ?", true)
	}
	if input.Filters.Category != "" {
		q = q.Where("category = ?", input.Filters.Category)
	}
	if input.Filters.Subcategory != "" {
		q = q.Where("subcategory = ?", input.Filters.Subcategory)
	}
	if input.Filters.Query != "" {
		pattern := "%" + input.Filters.Query + "%"
		q = q.Where("title LIKE ? OR excerpt LIKE ?", pattern, pattern)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Post
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDs loads the posts matching the provided IDs.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of posts, optionally restricted to published ones.
func (r *Repository) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ViewsByCategory sums the view counters per category.
func (r *Repository) ViewsByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		Views    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("category, SUM(views) AS views").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Views
	}
	return out, nil
}

// TotalViews sums the view counters across all posts.
func (r *Repository) TotalViews(ctx context.Context) (int64, error) {
	var total *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("SUM(views)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
