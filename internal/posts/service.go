package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

const (
	// CategoryData is the only category that carries a subcategory.
	CategoryData  = "data"
	CategoryEbook = "Ebook"
	CategorySPSS  = "SPSS"
	CategoryBlog  = "Blog"
)

var validCategories = map[string]bool{
	CategoryData:  true,
	CategoryEbook: true,
	CategorySPSS:  true,
	CategoryBlog:  true,
}

var validSubcategories = map[string]bool{
	"SPSS":     true,
	"Stata":    true,
	"SmartPLS": true,
}

const maxSlugAttempts = 50

// Service exposes the post catalog operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListOutput, error)
	GetBySlug(ctx context.Context, slug string, countView bool) (*PostDTO, error)
	Create(ctx context.Context, input CreatePostInput) (*PostDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, input ListInput, cursor *pagination.Cursor, limit int) ([]models.Post, error)
}

// assetReleaser frees stored objects a post no longer references.
type assetReleaser interface {
	ReleaseByURL(ctx context.Context, publicURL string) error
}

type service struct {
	repo   repository
	assets assetReleaser
	logg   *logger.Logger
}

// NewService constructs a post service backed by the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("post repository is required")
	}
	return &service{repo: repo}, nil
}

// NewServiceWithAssets additionally wires an asset releaser so replaced or
// orphaned thumbnails get cleaned out of object storage. Cleanup failures are
// logged, never returned.
func NewServiceWithAssets(repo repository, assets assetReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("post repository is required")
	}
	return &service{repo: repo, assets: assets, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list posts")
	}

	out := &ListOutput{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	out.Items = fromModels(rows)
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string, countView bool) (*PostDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup post")
	}

	if countView {
		if !post.Published {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		if err := s.repo.IncrementViews(ctx, post.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count view")
		}
		post.Views++
	}

	return FromModel(post), nil
}

func (s *service) Create(ctx context.Context, input CreatePostInput) (*PostDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	category, subcategory, err := normalizeCategory(input.Category, input.Subcategory)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	slug, err := s.uniqueSlug(ctx, title, uuid.Nil)
	if err != nil {
		return nil, err
	}

	published := false
	if input.Published != nil {
		published = *input.Published
	}

	post := &models.Post{
		Title:        title,
		Slug:         slug,
		Excerpt:      input.Excerpt,
		Content:      input.Content,
		Category:     category,
		Subcategory:  subcategory,
		Price:        input.Price,
		ThumbnailURL: input.ThumbnailURL,
		Published:    published,
		Tags:         tagsToModel(input.Tags),
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create post")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		if title != post.Title {
			slug, err := s.uniqueSlug(ctx, title, post.ID)
			if err != nil {
				return nil, err
			}
			post.Slug = slug
		}
		post.Title = title
	}
	if input.Excerpt != nil {
		post.Excerpt = input.Excerpt
	}
	if input.Content != nil {
		post.Content = input.Content
	}

	category := post.Category
	subcategory := post.Subcategory
	if input.Category != nil {
		category = *input.Category
	}
	if input.Subcategory != nil {
		subcategory = input.Subcategory
	}
	category, subcategory, err = normalizeCategory(category, subcategory)
	if err != nil {
		return nil, err
	}
	post.Category = category
	post.Subcategory = subcategory

	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		post.Price = *input.Price
	}
	var replacedThumbnail string
	if input.ThumbnailURL != nil {
		if post.ThumbnailURL != nil && *post.ThumbnailURL != *input.ThumbnailURL {
			replacedThumbnail = *post.ThumbnailURL
		}
		post.ThumbnailURL = input.ThumbnailURL
	}
	if input.Published != nil {
		post.Published = *input.Published
	}
	if input.Tags != nil {
		post.Tags = tagsToModel(input.Tags)
	}

	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update post")
	}
	s.releaseAsset(ctx, replacedThumbnail)
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup post")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete post")
	}
	if post.ThumbnailURL != nil {
		s.releaseAsset(ctx, *post.ThumbnailURL)
	}
	return nil
}

// releaseAsset is best effort. A failed cleanup leaves an orphaned object in
// the bucket but must not fail the post write.
func (s *service) releaseAsset(ctx context.Context, publicURL string) {
	if s.assets == nil || publicURL == "" {
		return
	}
	if err := s.assets.ReleaseByURL(ctx, publicURL); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "thumbnail_url", publicURL)
		s.logg.Error(ctx, "failed to release post thumbnail", err)
	}
}

// uniqueSlug derives a slug from the title, appending a numeric suffix until
// it no longer collides with another post.
func (s *service) uniqueSlug(ctx context.Context, title string, selfID uuid.UUID) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
	}

	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts; attempt++ {
		existing, err := s.repo.FindBySlug(ctx, candidate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return candidate, nil
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		}
		if selfID != uuid.Nil && existing.ID == selfID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not derive a unique slug")
}

// normalizeCategory validates the category and drops the subcategory for
// everything except the data category.
func normalizeCategory(category string, subcategory *string) (string, *string, error) {
	category = strings.TrimSpace(category)
	if !validCategories[category] {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if category != CategoryData {
		return category, nil, nil
	}
	if subcategory == nil {
		return category, nil, nil
	}
	sub := strings.TrimSpace(*subcategory)
	if sub == "" {
		return category, nil, nil
	}
	if !validSubcategories[sub] {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subcategory")
	}
	return category, &sub, nil
}
