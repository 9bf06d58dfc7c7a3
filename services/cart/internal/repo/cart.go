package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skatech/invcart/services/cart/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Preload("Items").First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Create(cart).Error
}

func (r *GormRepo) UpdateCartStatus(ctx context.Context, id uuid.UUID, status models.CartStatus) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GormRepo) UpdateCartExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error
}

func (r *GormRepo) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemQuantity updates the item row or creates it when missing. Quantity
// zero is never stored; callers delete the row instead.
func (r *GormRepo) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
		}).Error
	})
}

func (r *GormRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// FindExpiredCarts is the sweep query: active carts whose expiry is behind now.
func (r *GormRepo) FindExpiredCarts(ctx context.Context, now time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("status = ? AND expires_at < ?", models.CartStatusActive, now).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *GormRepo) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Cart{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
