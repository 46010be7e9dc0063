package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmOutput carries everything the storefront needs to show the
// bank-transfer payment screen.
type ConfirmOutput struct {
	OrderID      uuid.UUID       `json:"order_id"`
	CartID       uuid.UUID       `json:"cart_id"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	QRCodeURL    string          `json:"qr_code_url"`
	TransferNote string          `json:"transfer_note"`
}
