package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Post is a storefront listing: an ebook, SPSS guide, sample dataset, or blog
// entry. Price zero means the post is not purchasable.
type Post struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title        string          `gorm:"column:title;not null"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	Excerpt      *string         `gorm:"column:excerpt"`
	Content      *string         `gorm:"column:content"`
	Category     string          `gorm:"column:category;not null"`
	Subcategory  *string         `gorm:"column:subcategory"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(14,0);not null;default:0"`
	Views        int64           `gorm:"column:views;not null;default:0"`
	ThumbnailURL *string         `gorm:"column:thumbnail_url"`
	Published    bool            `gorm:"column:published;not null;default:false"`
	Tags         pq.StringArray  `gorm:"column:tags;type:text[]"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
