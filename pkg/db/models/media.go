package models

import (
	"time"

	"github.com/google/uuid"
)

// Media tracks an uploaded object (thumbnail, document) living in the bucket.
type Media struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectKey string    `gorm:"column:object_key;not null;uniqueIndex"`
	PublicURL string    `gorm:"column:public_url;not null"`
	MimeType  string    `gorm:"column:mime_type;not null"`
	SizeBytes int64     `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
