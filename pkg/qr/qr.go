// Package qr builds VietQR image URLs for manual bank-transfer payments.
package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dungdata/dungdata-backend/pkg/config"
)

const vietQRBase = "https://img.vietqr.io/image"

// Builder renders payment QR image URLs from the configured bank account.
type Builder struct {
	bankCode      string
	accountNumber string
	template      string
}

// NewBuilder validates the payment configuration and returns a Builder.
func NewBuilder(cfg config.PaymentConfig) (*Builder, error) {
	bank := strings.TrimSpace(cfg.BankCode)
	account := strings.TrimSpace(cfg.AccountNumber)
	template := strings.TrimSpace(cfg.QRTemplate)
	if bank == "" {
		return nil, fmt.Errorf("payment bank code is required")
	}
	if account == "" {
		return nil, fmt.Errorf("payment account number is required")
	}
	if template == "" {
		template = "compact"
	}
	return &Builder{
		bankCode:      bank,
		accountNumber: account,
		template:      template,
	}, nil
}

// PaymentURL returns the VietQR image URL for the given amount and transfer note.
// The note is what the payer's banking app pre-fills, used later to match the
// transfer against the order.
func (b *Builder) PaymentURL(amount decimal.Decimal, note string) string {
	query := url.Values{}
	query.Set("amount", amount.StringFixed(0))
	if note = strings.TrimSpace(note); note != "" {
		query.Set("addInfo", note)
	}
	return fmt.Sprintf("%s/%s-%s-%s.png?%s", vietQRBase, b.bankCode, b.accountNumber, b.template, query.Encode())
}

// TransferNote derives the transfer note from the buyer's email, keeping the
// part before the @ so it fits banking app note fields.
func TransferNote(email string) string {
	email = strings.TrimSpace(email)
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
