package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartStatus string

const (
	CartStatusActive  CartStatus = "active"
	CartStatusExpired CartStatus = "expired"
	CartStatusPaid    CartStatus = "paid"
)

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"                json:"id"`
	Status    CartStatus `gorm:"size:20;not null;default:active"     json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                          json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                   json:"quantity"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
