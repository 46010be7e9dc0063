package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
)

// MessageDTO is the transport shape for contact-form submissions.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMessageInput is the public contact form payload.
type CreateMessageInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Content string `json:"content" validate:"required"`
}

// ListInput captures the admin inbox filters.
type ListInput struct {
	UnreadOnly bool
	Limit      int
	Cursor     string
}

// ListOutput contains one page of messages plus the cursor for the next page.
type ListOutput struct {
	Items      []MessageDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func FromModel(m *models.Message) *MessageDTO {
	if m == nil {
		return nil
	}
	return &MessageDTO{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func fromModels(rows []models.Message) []MessageDTO {
	items := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items
}
