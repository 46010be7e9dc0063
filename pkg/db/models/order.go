package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/enums"
)

// Order snapshots a checkout attempt awaiting manual bank-transfer review.
// Note carries the fixed shipped marker once an admin dispatches the goods.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(14,0);not null"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Note       *string           `gorm:"column:note"`
	Cart       *Cart             `gorm:"foreignKey:CartID"`
	User       *User             `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
