package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/qr"
)

// Service turns a pending cart into an order awaiting bank-transfer review.
type Service interface {
	Confirm(ctx context.Context, userID uuid.UUID, email string) (*ConfirmOutput, error)
}

type postCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the checkout service dependencies.
type ServiceParams struct {
	Carts  *cart.Repository
	Orders *orders.Repository
	Posts  postCatalog
	DB     txRunner
	QR     *qr.Builder
}

type service struct {
	carts  *cart.Repository
	orders *orders.Repository
	posts  postCatalog
	db     txRunner
	qr     *qr.Builder
}

// NewService constructs a checkout service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Posts == nil {
		return nil, fmt.Errorf("post catalog is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.QR == nil {
		return nil, fmt.Errorf("qr builder is required")
	}
	return &service{
		carts:  params.Carts,
		orders: params.Orders,
		posts:  params.Posts,
		db:     params.DB,
		qr:     params.QR,
	}, nil
}

// Confirm freezes the user's pending cart: the total is recomputed from the
// catalog prices, the cart moves to wait, and an order is opened for the
// admin to verify the transfer. Client-supplied totals are never trusted.
func (s *service) Confirm(ctx context.Context, userID uuid.UUID, email string) (*ConfirmOutput, error) {
	pending, err := s.carts.FindPendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	lines, err := s.carts.ListItems(ctx, pending.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total, err := s.recomputeTotal(ctx, lines)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		if err := carts.UpdateTotal(ctx, pending.ID, total); err != nil {
			return err
		}
		if err := carts.UpdateStatus(ctx, pending.ID, enums.CartStatusWait); err != nil {
			return err
		}
		order, err = s.orders.WithTx(tx).Create(ctx, &models.Order{
			CartID:     pending.ID,
			UserID:     userID,
			TotalPrice: total,
			Status:     enums.OrderStatusPending,
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm checkout")
	}

	note := qr.TransferNote(email)
	return &ConfirmOutput{
		OrderID:      order.ID,
		CartID:       pending.ID,
		TotalPrice:   total,
		QRCodeURL:    s.qr.PaymentURL(total, note),
		TransferNote: note,
	}, nil
}

// recomputeTotal prices the cart from the current catalog rows rather than
// the totals stored alongside the cart.
func (s *service) recomputeTotal(ctx context.Context, lines []cart.ItemWithPost) (decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.PostID)
	}
	rows, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price cart items")
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		prices[row.ID] = row.Price
	}

	total := decimal.Zero
	for _, line := range lines {
		price, ok := prices[line.PostID]
		if !ok {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "cart references a removed post")
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}
