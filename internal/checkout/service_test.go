package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/pkg/config"
	"github.com/dungdata/dungdata-backend/pkg/db"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/qr"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS posts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  excerpt TEXT,
  content TEXT,
  category TEXT NOT NULL,
  subcategory TEXT,
  price TEXT NOT NULL DEFAULT '0',
  views INTEGER NOT NULL DEFAULT 0,
  thumbnail_url TEXT,
  published INTEGER NOT NULL DEFAULT 0,
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  post_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, post_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type sqlitePostCatalog struct {
	conn *gorm.DB
}

func (c *sqlitePostCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error) {
	var rows []models.Post
	if err := c.conn.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func newCheckoutTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	builder, err := qr.NewBuilder(config.PaymentConfig{
		BankCode:      "mb",
		AccountNumber: "0123456789",
		QRTemplate:    "compact",
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Carts:  cart.NewRepository(conn),
		Orders: orders.NewRepository(conn),
		Posts:  &sqlitePostCatalog{conn: conn},
		DB:     db.NewWithConn(conn),
		QR:     builder,
	})
	require.NoError(t, err)
	return svc
}

func seedPendingCart(t *testing.T, conn *gorm.DB, userID uuid.UUID, prices ...int64) *models.Cart {
	t.Helper()

	cartRow := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusPending,
	}
	require.NoError(t, conn.Create(cartRow).Error)

	for _, price := range prices {
		post := &models.Post{
			ID:        uuid.New(),
			Title:     "Dữ liệu",
			Slug:      uuid.NewString(),
			Category:  "data",
			Price:     decimal.NewFromInt(price),
			Published: true,
		}
		require.NoError(t, conn.Create(post).Error)
		require.NoError(t, conn.Create(&models.CartItem{
			ID:       uuid.New(),
			CartID:   cartRow.ID,
			PostID:   post.ID,
			Quantity: 1,
		}).Error)
	}
	return cartRow
}

func TestConfirmOpensOrderAndMovesCartToWait(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutTestService(t, conn)
	userID := uuid.New()
	cartRow := seedPendingCart(t, conn, userID, 150000, 50000)

	out, err := svc.Confirm(context.Background(), userID, "ngocdung@gmail.com")
	require.NoError(t, err)

	assert.True(t, out.TotalPrice.Equal(decimal.NewFromInt(200000)),
		"expected total 200000, got %s", out.TotalPrice)
	assert.Equal(t, "ngocdung", out.TransferNote)
	assert.True(t, strings.HasPrefix(out.QRCodeURL, "https://img.vietqr.io/image/mb-0123456789-compact.png"),
		"unexpected QR URL %s", out.QRCodeURL)
	assert.Contains(t, out.QRCodeURL, "amount=200000")

	var cartAfter models.Cart
	require.NoError(t, conn.First(&cartAfter, "id = ?", cartRow.ID).Error)
	assert.Equal(t, enums.CartStatusWait, cartAfter.Status)
	assert.True(t, cartAfter.TotalPrice.Equal(decimal.NewFromInt(200000)))

	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", out.OrderID).Error)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, userID, order.UserID)
}

func TestConfirmIgnoresStoredCartTotal(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutTestService(t, conn)
	userID := uuid.New()
	cartRow := seedPendingCart(t, conn, userID, 80000)

	// A tampered total on the cart row must not leak into the order.
	require.NoError(t, conn.Model(&models.Cart{}).
		Where("id = ?", cartRow.ID).
		Update("total_price", decimal.NewFromInt(1)).Error)

	out, err := svc.Confirm(context.Background(), userID, "user@example.com")
	require.NoError(t, err)

	assert.True(t, out.TotalPrice.Equal(decimal.NewFromInt(80000)),
		"expected recomputed total 80000, got %s", out.TotalPrice)
}

func TestConfirmRejectsEmptyCart(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutTestService(t, conn)
	userID := uuid.New()
	seedPendingCart(t, conn, userID)

	_, err := svc.Confirm(context.Background(), userID, "user@example.com")
	appErr, ok := pkgerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestConfirmWithoutPendingCart(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutTestService(t, conn)

	_, err := svc.Confirm(context.Background(), uuid.New(), "user@example.com")
	appErr, ok := pkgerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
