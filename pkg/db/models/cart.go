package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/enums"
)

// Cart is the per-user basket. A partial unique index on (user_id) where
// status = 'pending' guarantees at most one active cart per user.
type Cart struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status     enums.CartStatus `gorm:"column:status;not null;default:'pending'"`
	TotalPrice decimal.Decimal  `gorm:"column:total_price;type:numeric(14,0);not null;default:0"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
