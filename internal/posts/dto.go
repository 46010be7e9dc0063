package posts

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// PostDTO is the transport shape returned by the read endpoints.
type PostDTO struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Excerpt      *string         `json:"excerpt,omitempty"`
	Content      *string         `json:"content,omitempty"`
	Category     string          `json:"category"`
	Subcategory  *string         `json:"subcategory,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Views        int64           `json:"views"`
	ThumbnailURL *string         `json:"thumbnail_url,omitempty"`
	Published    bool            `json:"published"`
	Tags         []string        `json:"tags"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreatePostInput holds the fields accepted when an admin creates a post.
type CreatePostInput struct {
	Title        string          `json:"title" validate:"required"`
	Excerpt      *string         `json:"excerpt,omitempty"`
	Content      *string         `json:"content,omitempty"`
	Category     string          `json:"category" validate:"required"`
	Subcategory  *string         `json:"subcategory,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ThumbnailURL *string         `json:"thumbnail_url,omitempty"`
	Published    *bool           `json:"published,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
}

// UpdatePostInput holds the fields accepted when an admin updates a post.
// Nil pointers leave the stored value untouched.
type UpdatePostInput struct {
	Title        *string          `json:"title,omitempty"`
	Excerpt      *string          `json:"excerpt,omitempty"`
	Content      *string          `json:"content,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Subcategory  *string          `json:"subcategory,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	ThumbnailURL *string          `json:"thumbnail_url,omitempty"`
	Published    *bool            `json:"published,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
}

// ListFilters describe the filter knobs for the browse endpoint.
type ListFilters struct {
	Category    string
	Subcategory string
	Query       string
}

// ListInput captures the inputs needed to paginate and filter posts.
type ListInput struct {
	Filters       ListFilters
	Pagination    pagination.Params
	IncludeDrafts bool
}

// ListOutput contains one page of posts plus the cursor for the next page.
type ListOutput struct {
	Items      []PostDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func FromModel(p *models.Post) *PostDTO {
	if p == nil {
		return nil
	}
	return &PostDTO{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Excerpt:      p.Excerpt,
		Content:      p.Content,
		Category:     p.Category,
		Subcategory:  p.Subcategory,
		Price:        p.Price,
		Views:        p.Views,
		ThumbnailURL: p.ThumbnailURL,
		Published:    p.Published,
		Tags:         append([]string(nil), p.Tags...),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromModels(rows []models.Post) []PostDTO {
	items := make([]PostDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items
}

func tagsToModel(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}
