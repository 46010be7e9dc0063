package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// ShippedNote is the fixed marker written onto confirmed orders once the
// goods have been dispatched.
const ShippedNote = "Đã gửi hàng"

// Service exposes the manual bank-transfer review operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListOutput, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Reject(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	MarkShipped(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Repo  *Repository
	Carts *cart.Repository
	DB    txRunner
}

type service struct {
	repo  *Repository
	carts *cart.Repository
	db    txRunner
}

// NewService constructs an order service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{repo: params.Repo, carts: params.Carts, db: params.DB}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	out := &ListOutput{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	out.Items = fromModels(rows)
	return out, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user orders")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// Confirm marks a pending order as paid: the order moves to confirmed and its
// cart settles as paid, in one transaction.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	return s.review(ctx, orderID, enums.OrderStatusConfirmed, enums.CartStatusPaid)
}

// Reject marks a pending order as unpaid: the order moves to rejected and its
// cart is canceled, in one transaction.
func (s *service) Reject(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	return s.review(ctx, orderID, enums.OrderStatusRejected, enums.CartStatusCanceled)
}

// MarkShipped stamps a confirmed order with the shipped marker note.
func (s *service) MarkShipped(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed orders can be shipped")
	}

	if err := s.repo.SetNote(ctx, order.ID, ShippedNote); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order shipped")
	}
	return s.Get(ctx, orderID)
}

func (s *service) review(ctx context.Context, orderID uuid.UUID, orderStatus enums.OrderStatus, cartStatus enums.CartStatus) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has already been reviewed")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, orderStatus); err != nil {
			return err
		}
		return s.carts.WithTx(tx).UpdateStatus(ctx, order.CartID, cartStatus)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "review order")
	}
	return s.Get(ctx, orderID)
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
	}
	return order, nil
}
