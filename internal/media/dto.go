package media

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
)

// MediaDTO is the transport shape for uploaded objects.
type MediaDTO struct {
	ID        uuid.UUID `json:"id"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadInput carries one file from the admin upload endpoint.
type UploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// DeletionRequest is the message shipped to the deletion worker.
type DeletionRequest struct {
	MediaID   uuid.UUID `json:"media_id"`
	ObjectKey string    `json:"object_key"`
}

// ListOutput contains one page of media rows plus the cursor for the next page.
type ListOutput struct {
	Items      []MediaDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(m *models.Media) *MediaDTO {
	if m == nil {
		return nil
	}
	return &MediaDTO{
		ID:        m.ID,
		ObjectKey: m.ObjectKey,
		PublicURL: m.PublicURL,
		MimeType:  m.MimeType,
		SizeBytes: m.SizeBytes,
		CreatedAt: m.CreatedAt,
	}
}

func fromModels(rows []models.Media) []MediaDTO {
	items := make([]MediaDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items
}
