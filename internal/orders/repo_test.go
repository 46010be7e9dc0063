package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/pkg/db"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(carts).Error)
	require.NoError(t, conn.Exec(orders).Error)
	return conn
}

func newOrdersTestService(t *testing.T, conn *gorm.DB) (Service, *Repository) {
	t.Helper()

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:  repo,
		Carts: cart.NewRepository(conn),
		DB:    db.NewWithConn(conn),
	})
	require.NoError(t, err)
	return svc, repo
}

func seedOrder(t *testing.T, conn *gorm.DB, total int64) *models.Order {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)

	cartRow := &models.Cart{
		ID:         uuid.New(),
		UserID:     user.ID,
		Status:     enums.CartStatusWait,
		TotalPrice: decimal.NewFromInt(total),
	}
	require.NoError(t, conn.Create(cartRow).Error)

	order := &models.Order{
		ID:         uuid.New(),
		CartID:     cartRow.ID,
		UserID:     user.ID,
		TotalPrice: decimal.NewFromInt(total),
		Status:     enums.OrderStatusPending,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func cartStatus(t *testing.T, conn *gorm.DB, cartID uuid.UUID) enums.CartStatus {
	t.Helper()

	var row models.Cart
	require.NoError(t, conn.First(&row, "id = ?", cartID).Error)
	return row.Status
}

func requireOrderErrCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()

	appErr, ok := pkgerrors.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, want, appErr.Code())
}

func TestConfirmSettlesCartAsPaid(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	order := seedOrder(t, conn, 250000)

	dto, err := svc.Confirm(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusConfirmed, dto.Status)
	assert.Equal(t, enums.CartStatusPaid, cartStatus(t, conn, order.CartID))
	assert.NotEmpty(t, dto.UserEmail)
}

func TestRejectCancelsCart(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	order := seedOrder(t, conn, 120000)

	dto, err := svc.Reject(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusRejected, dto.Status)
	assert.Equal(t, enums.CartStatusCanceled, cartStatus(t, conn, order.CartID))
}

func TestConfirmTwiceIsAStateConflict(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	order := seedOrder(t, conn, 99000)

	_, err := svc.Confirm(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), order.ID)
	requireOrderErrCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkShippedRequiresConfirmedOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	order := seedOrder(t, conn, 99000)

	_, err := svc.MarkShipped(context.Background(), order.ID)
	requireOrderErrCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.Confirm(context.Background(), order.ID)
	require.NoError(t, err)

	dto, err := svc.MarkShipped(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.Note)
	assert.Equal(t, ShippedNote, *dto.Note)
}

func TestListFiltersByStatus(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	pendingOrder := seedOrder(t, conn, 50000)
	confirmed := seedOrder(t, conn, 70000)

	_, err := svc.Confirm(context.Background(), confirmed.ID)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), ListInput{Status: enums.OrderStatusPending})
	require.NoError(t, err)

	for _, item := range out.Items {
		assert.Equal(t, enums.OrderStatusPending, item.Status)
	}
	found := false
	for _, item := range out.Items {
		if item.ID == pendingOrder.ID {
			found = true
		}
	}
	assert.True(t, found, "expected the pending order in the filtered page")
}

func TestListRejectsUnknownStatus(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)

	_, err := svc.List(context.Background(), ListInput{Status: enums.OrderStatus("shipped")})
	requireOrderErrCode(t, err, pkgerrors.CodeValidation)
}

func TestListMineScopesToUser(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc, _ := newOrdersTestService(t, conn)
	mine := seedOrder(t, conn, 40000)
	seedOrder(t, conn, 80000)

	rows, err := svc.ListMine(context.Background(), mine.UserID)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)
}
