package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one post line in a cart. (cart_id, post_id) is unique; re-adding
// the same post increments quantity instead of inserting a second row.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:cart_items_cart_post_key,priority:1"`
	PostID    uuid.UUID `gorm:"column:post_id;type:uuid;not null;uniqueIndex:cart_items_cart_post_key,priority:2"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
