package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/skatech/invcart/services/cart/internal/models"
)

type CartItemUpdate struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemsRequest struct {
	Items []CartItemUpdate `json:"items"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CartDTO struct {
	ID        uuid.UUID     `json:"id"`
	Status    string        `json:"status"`
	ExpiresAt *string       `json:"expires_at"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Items     []CartItemDTO `json:"items"`
}

type CartData struct {
	Cart        CartDTO `json:"cart"`
	Blocked     bool    `json:"blocked"`
	BlockReason string  `json:"block_reason,omitempty"`
}

type DeleteCartData struct {
	Message       string    `json:"message"`
	DeletedID     uuid.UUID `json:"deleted_id"`
	ItemsRestored int       `json:"items_restored"`
}

func ToCartDTO(cart *models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, i := range cart.Items {
		items = append(items, CartItemDTO{
			ID:        i.ID,
			CartID:    i.CartID,
			ProductID: i.ProductID,
			Quantity:  i.Quantity,
		})
	}

	var expiresAt *string
	if cart.ExpiresAt != nil {
		v := cart.ExpiresAt.UTC().Format(time.RFC3339)
		expiresAt = &v
	}

	return CartDTO{
		ID:        cart.ID,
		Status:    string(cart.Status),
		ExpiresAt: expiresAt,
		CreatedAt: cart.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: cart.UpdatedAt.UTC().Format(time.RFC3339),
		Items:     items,
	}
}
