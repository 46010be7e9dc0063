package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/enums"
)

// ItemWithPost is one cart line joined with the catalog fields the storefront
// renders.
type ItemWithPost struct {
	ItemID       uuid.UUID
	PostID       uuid.UUID
	Title        string
	Slug         string
	Category     string
	ThumbnailURL *string
	Price        decimal.Decimal
	Quantity     int
	CreatedAt    time.Time
}

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindOrCreatePending returns the user's pending cart, creating it when none
// exists. The insert uses ON CONFLICT DO NOTHING, so losing a concurrent race
// never raises a unique violation that would abort a surrounding transaction;
// the loser re-reads the winner's row instead.
func (r *Repository) FindOrCreatePending(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindPendingByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh, created, err := r.insertPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !created {
		return r.FindPendingByUser(ctx, userID)
	}
	return fresh, nil
}

func (r *Repository) insertPending(ctx context.Context, userID uuid.UUID) (*models.Cart, bool, error) {
	fresh := &models.Cart{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     enums.CartStatusPending,
		TotalPrice: decimal.Zero,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fresh)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return fresh, res.RowsAffected > 0, nil
}

// FindPendingByUser loads the user's pending cart without creating one.
func (r *Repository) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusPending).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem inserts a cart line or bumps the quantity when the post is already
// in the cart. The (cart_id, post_id) unique index backs the upsert.
func (r *Repository) AddItem(ctx context.Context, cartID, postID uuid.UUID) error {
	item := &models.CartItem{
		ID:       uuid.New(),
		CartID:   cartID,
		PostID:   postID,
		Quantity: 1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(item).Error
}

// FindItem loads one cart line scoped to its cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemQuantity replaces the quantity of one cart line.
func (r *Repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		}).Error
}

// RemoveItem deletes one cart line.
func (r *Repository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).Error
}

// ListItems returns the cart lines joined with their posts, oldest first.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]ItemWithPost, error) {
	var lines []ItemWithPost
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.id AS item_id, cart_items.post_id, posts.title, posts.slug, posts.category, posts.thumbnail_url, posts.price, cart_items.quantity, cart_items.created_at").
		Joins("JOIN posts ON posts.id = cart_items.post_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.created_at ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateStatus moves a cart to the given lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpdateTotal persists the recomputed cart total.
func (r *Repository) UpdateTotal(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_price": total,
			"updated_at":  time.Now().UTC(),
		}).Error
}
