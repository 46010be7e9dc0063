package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// OrderDTO is the transport shape for checkout records.
type OrderDTO struct {
	ID         uuid.UUID         `json:"id"`
	CartID     uuid.UUID         `json:"cart_id"`
	UserID     uuid.UUID         `json:"user_id"`
	UserEmail  string            `json:"user_email,omitempty"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     enums.OrderStatus `json:"status"`
	Note       *string           `json:"note,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ListInput captures the admin order review filters.
type ListInput struct {
	Status     enums.OrderStatus
	Pagination pagination.Params
}

// ListOutput contains one page of orders plus the cursor for the next page.
type ListOutput struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:         o.ID,
		CartID:     o.CartID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
		Note:       o.Note,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if o.User != nil {
		dto.UserEmail = o.User.Email
	}
	return dto
}

func fromModels(rows []models.Order) []OrderDTO {
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items
}
