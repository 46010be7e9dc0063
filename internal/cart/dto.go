package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
)

// CartItemDTO is one line in the cart response, joined with its post.
type CartItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	PostID       uuid.UUID       `json:"post_id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Category     string          `json:"category"`
	ThumbnailURL *string         `json:"thumbnail_url,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CartDTO is the full cart payload returned to the storefront.
type CartDTO struct {
	ID         uuid.UUID        `json:"id"`
	Status     enums.CartStatus `json:"status"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	Items      []CartItemDTO    `json:"items"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// AddItemInput identifies the post to drop into the pending cart.
type AddItemInput struct {
	PostID uuid.UUID `json:"post_id" validate:"required"`
}

// SetQuantityInput carries the replacement quantity for a cart line.
type SetQuantityInput struct {
	Quantity int `json:"quantity" validate:"required"`
}

func fromCart(cart *models.Cart, lines []ItemWithPost) *CartDTO {
	dto := &CartDTO{
		ID:         cart.ID,
		Status:     cart.Status,
		TotalPrice: cart.TotalPrice,
		Items:      make([]CartItemDTO, 0, len(lines)),
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, line := range lines {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:           line.ItemID,
			PostID:       line.PostID,
			Title:        line.Title,
			Slug:         line.Slug,
			Category:     line.Category,
			ThumbnailURL: line.ThumbnailURL,
			Price:        line.Price,
			Quantity:     line.Quantity,
			LineTotal:    line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			CreatedAt:    line.CreatedAt,
		})
	}
	return dto
}
