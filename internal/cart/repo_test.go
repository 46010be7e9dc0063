package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	posts := `
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
	pendingIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS carts_user_pending_key
  ON carts (user_id) WHERE status = 'pending';`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  post_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, post_id)
);`
	require.NoError(t, conn.Exec(posts).Error)
	require.NoError(t, conn.Exec(carts).Error)
	require.NoError(t, conn.Exec(pendingIdx).Error)
	require.NoError(t, conn.Exec(cartItems).Error)
	return conn
}

func newCartTestService(t *testing.T, conn *gorm.DB) (Service, *Repository) {
	t.Helper()

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:  repo,
		Posts: catalogFromConn(conn),
		DB:    db.NewWithConn(conn),
	})
	require.NoError(t, err)
	return svc, repo
}

type connCatalog struct {
	conn *gorm.DB
}

func catalogFromConn(conn *gorm.DB) postCatalog {
	return &connCatalog{conn: conn}
}

func (c *connCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := c.conn.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func seedPost(t *testing.T, conn *gorm.DB, title string, price int64, published bool) *models.Post {
	t.Helper()

	post := &models.Post{
		ID:        uuid.New(),
		Title:     title,
		Slug:      uuid.NewString(),
		Category:  "data",
		Price:     decimal.NewFromInt(price),
		Published: published,
	}
	require.NoError(t, conn.Create(post).Error)
	return post
}

func requireCartErrCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()

	appErr, ok := pkgerrors.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, want, appErr.Code())
}

func TestFindOrCreatePendingReusesExistingCart(t *testing.T) {
	conn := setupCartTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()

	first, err := repo.FindOrCreatePending(ctx, userID)
	require.NoError(t, err)
	second, err := repo.FindOrCreatePending(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestLosingPendingCartRaceInsideTransaction(t *testing.T) {
	conn := setupCartTestDB(t)
	ctx := context.Background()
	userID := uuid.New()

	winner, err := NewRepository(conn).FindOrCreatePending(ctx, userID)
	require.NoError(t, err)

	// The losing insert must not poison the transaction it runs in.
	err = conn.Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(conn).WithTx(tx)
		_, created, err := repo.insertPending(ctx, userID)
		require.NoError(t, err)
		require.False(t, created)

		loser, err := repo.FindOrCreatePending(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, loser.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestPendingCartUniquePerUser(t *testing.T) {
	conn := setupCartTestDB(t)
	ctx := context.Background()
	userID := uuid.New()

	repo := NewRepository(conn)
	_, err := repo.FindOrCreatePending(ctx, userID)
	require.NoError(t, err)

	dup := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusPending,
	}
	err = conn.Create(dup).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	// A settled cart does not block a new pending one.
	require.NoError(t, conn.Model(&models.Cart{}).
		Where("user_id = ?", userID).
		Update("status", enums.CartStatusPaid).Error)
	_, err = repo.FindOrCreatePending(ctx, userID)
	require.NoError(t, err)
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	post := seedPost(t, conn, "Dữ liệu khảo sát", 150000, true)

	_, err := svc.AddItem(ctx, userID, AddItemInput{PostID: post.ID})
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, userID, AddItemInput{PostID: post.ID})
	require.NoError(t, err)

	require.Len(t, dto.Items, 1)
	assert.Equal(t, 2, dto.Items[0].Quantity)
	assert.True(t, dto.TotalPrice.Equal(decimal.NewFromInt(300000)),
		"expected total 300000, got %s", dto.TotalPrice)
}

func TestAddItemRejectsDraftPost(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)
	draft := seedPost(t, conn, "Nháp", 100000, false)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{PostID: draft.ID})
	requireCartErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddItemRejectsUnknownPost(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{PostID: uuid.New()})
	requireCartErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestSetQuantityRejectsBelowOne(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	post := seedPost(t, conn, "Dữ liệu", 100000, true)

	dto, err := svc.AddItem(ctx, userID, AddItemInput{PostID: post.ID})
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, userID, dto.Items[0].ID, SetQuantityInput{Quantity: 0})
	requireCartErrCode(t, err, pkgerrors.CodeValidation)
}

func TestSetQuantityRecomputesTotal(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	post := seedPost(t, conn, "Dữ liệu", 120000, true)

	dto, err := svc.AddItem(ctx, userID, AddItemInput{PostID: post.ID})
	require.NoError(t, err)

	updated, err := svc.SetQuantity(ctx, userID, dto.Items[0].ID, SetQuantityInput{Quantity: 3})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 3, updated.Items[0].Quantity)
	assert.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(360000)),
		"expected total 360000, got %s", updated.TotalPrice)
}

func TestRemoveItemRecomputesTotal(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	keep := seedPost(t, conn, "Giữ lại", 90000, true)
	drop := seedPost(t, conn, "Bỏ đi", 60000, true)

	_, err := svc.AddItem(ctx, userID, AddItemInput{PostID: keep.ID})
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, userID, AddItemInput{PostID: drop.ID})
	require.NoError(t, err)
	require.Len(t, dto.Items, 2)

	var dropItemID uuid.UUID
	for _, item := range dto.Items {
		if item.PostID == drop.ID {
			dropItemID = item.ID
		}
	}

	after, err := svc.RemoveItem(ctx, userID, dropItemID)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, keep.ID, after.Items[0].PostID)
	assert.True(t, after.TotalPrice.Equal(decimal.NewFromInt(90000)),
		"expected total 90000, got %s", after.TotalPrice)
}

func TestSetQuantityWithoutPendingCart(t *testing.T) {
	conn := setupCartTestDB(t)
	svc, _ := newCartTestService(t, conn)

	_, err := svc.SetQuantity(context.Background(), uuid.New(), uuid.New(), SetQuantityInput{Quantity: 2})
	requireCartErrCode(t, err, pkgerrors.CodeNotFound)
}
