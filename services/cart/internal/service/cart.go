package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/pkg/mykafka"
	"github.com/skatech/invcart/pkg/outcome"
	"github.com/skatech/invcart/pkg/stockclient"
	"github.com/skatech/invcart/services/cart/internal/models"
	"github.com/skatech/invcart/services/cart/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrCartNotActive     = errors.New("cart not active")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartTTL is the sliding expiry window: every successful item mutation pushes
// the cart's expiry out by this much again.
const CartTTL = 15 * time.Minute

// StockService is the remote seam to the catalog's stock ledger. The cart
// side only ever sees structured reservation results from it.
type StockService interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int, opID string) (*stockclient.AdjustResult, error)
	BatchAdjustStock(ctx context.Context, items []stockclient.ReservationItem, allOrNothing bool) (*stockclient.BatchResult, error)
}

type CartService struct {
	Repo     *repo.GormRepo
	Stock    StockService
	Producer *mykafka.Producer
	TTL      time.Duration
}

type UpdateMode string

const (
	ModeAdd       UpdateMode = "add"
	ModeOverwrite UpdateMode = "overwrite"
)

type ItemUpdate struct {
	ProductID uuid.UUID
	Quantity  int
}

type CartMutationOutcome struct {
	Cart         *models.Cart
	Status       outcome.Status
	Blocked      bool
	BlockReason  string
	Errors       []outcome.ItemError
	SuccessCount int
	ErrorCount   int
	TotalItems   int
	RequestID    string
}

func (s *CartService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return CartTTL
}

func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	expiresAt := time.Now().UTC().Add(s.ttl())
	cart := &models.Cart{
		Status:    models.CartStatusActive,
		ExpiresAt: &expiresAt,
		Items:     []models.CartItem{},
	}
	if err := s.Repo.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart loads a cart and applies lazy expiry: a cart read after its expiry
// is transitioned and its stock released before the caller sees it.
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.GetCart(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.expireIfDue(ctx, cart)
}

// UpsertItems is the cart-to-stock saga. It computes per-item deltas against
// the current cart contents, reserves the net change through the stock
// service in partial mode, and persists only the items whose reservation
// succeeded. Any success extends the sliding expiry.
func (s *CartService) UpsertItems(ctx context.Context, cartID uuid.UUID, updates []ItemUpdate, mode UpdateMode) (*CartMutationOutcome, error) {
	requestID := fmt.Sprintf("cart-%s-%s", cartID, uuid.NewString())

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartStatusActive {
		return nil, fmt.Errorf("cannot update cart with status %s: %w", cart.Status, ErrCartNotActive)
	}

	current := make(map[uuid.UUID]int, len(cart.Items))
	for _, item := range cart.Items {
		current[item.ProductID] = item.Quantity
	}

	type plannedItem struct {
		productID uuid.UUID
		finalQty  int
		delta     int
	}

	planned := make([]plannedItem, 0, len(updates))
	reservations := make([]stockclient.ReservationItem, 0, len(updates))
	seen := make(map[uuid.UUID]bool, len(updates))

	for _, upd := range updates {
		if upd.Quantity < 0 {
			return nil, fmt.Errorf("quantity cannot be negative for product %s: %w", upd.ProductID, ErrValidation)
		}
		// One entry per product: a duplicate would reuse the same opId and
		// make its two deltas indistinguishable from a replay.
		if seen[upd.ProductID] {
			return nil, fmt.Errorf("duplicate product %s in request: %w", upd.ProductID, ErrValidation)
		}
		seen[upd.ProductID] = true

		currentQty := current[upd.ProductID]
		var finalQty, delta int
		switch mode {
		case ModeAdd:
			if upd.Quantity <= 0 {
				continue
			}
			finalQty = currentQty + upd.Quantity
			delta = upd.Quantity
		case ModeOverwrite:
			finalQty = upd.Quantity
			delta = upd.Quantity - currentQty
		default:
			return nil, fmt.Errorf("unknown update mode %q: %w", mode, ErrValidation)
		}

		planned = append(planned, plannedItem{productID: upd.ProductID, finalQty: finalQty, delta: delta})
		if delta != 0 {
			// Negative delta against stock means reserve; positive releases.
			reservations = append(reservations, stockclient.ReservationItem{
				ProductID: upd.ProductID,
				QtyDelta:  -delta,
				OpID:      fmt.Sprintf("%s-%s", requestID, upd.ProductID),
			})
		}
	}

	results := map[uuid.UUID]stockclient.AdjustResult{}
	if len(reservations) > 0 {
		batch, err := s.Stock.BatchAdjustStock(ctx, reservations, false)
		if err != nil {
			// The seam failed as a whole; every pending reservation is
			// treated as failed, nothing is persisted for those items.
			logging.FromContext(ctx).Error("batch_reservation_unreachable", "cart_id", cartID, "error", err)
			for _, r := range reservations {
				results[r.ProductID] = stockclient.AdjustResult{
					ProductID: r.ProductID,
					Success:   false,
					Status:    stockclient.StatusConcurrencyExhausted,
					Error:     "stock service unavailable",
				}
			}
		} else {
			for _, r := range batch.Results {
				results[r.ProductID] = r
			}
		}
	}

	var itemErrors []outcome.ItemError
	for _, p := range planned {
		if mode == ModeOverwrite && p.finalQty == 0 {
			// Removal always succeeds; the release was requested above and
			// its outcome does not gate deleting the row.
			if err := s.Repo.DeleteItem(ctx, cartID, p.productID); err != nil {
				return nil, err
			}
			continue
		}

		res, ok := results[p.productID]
		if !ok {
			// No net delta, nothing was reserved and nothing changes.
			continue
		}
		if !res.Success {
			msg := res.Error
			if msg == "" {
				msg = "reservation failed"
			}
			itemErrors = append(itemErrors, outcome.ItemError{
				Code:    "INSUFFICIENT_STOCK",
				Message: msg,
				Target:  fmt.Sprintf("items[%s]", p.productID),
			})
			continue
		}

		if err := s.Repo.SetItemQuantity(ctx, cartID, p.productID, p.finalQty); err != nil {
			return nil, err
		}
	}

	// Every requested entry counts toward the total; Add-mode zero-quantity
	// skips are no-op successes.
	totalItems := len(updates)
	errorCount := len(itemErrors)
	successCount := totalItems - errorCount

	if successCount > 0 {
		if err := s.Repo.UpdateCartExpiry(ctx, cartID, time.Now().UTC().Add(s.ttl())); err != nil {
			return nil, err
		}
	}

	updated, err := s.Repo.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	return &CartMutationOutcome{
		Cart:         updated,
		Status:       outcome.ForCounts(successCount, errorCount),
		Blocked:      errorCount > 0,
		BlockReason:  blockReason(errorCount),
		Errors:       itemErrors,
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		TotalItems:   totalItems,
		RequestID:    requestID,
	}, nil
}

func blockReason(errorCount int) string {
	if errorCount > 0 {
		return "UNAVAILABLE_ITEMS_PRESENT"
	}
	return ""
}

// UpdateItemQuantity changes one item as a single unit of work. There is no
// partial state: the item either reaches the requested quantity or stays
// untouched. A storage failure after a successful reservation is compensated
// by reversing the reservation before the error propagates.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrValidation)
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartStatusActive {
		return nil, fmt.Errorf("cannot update cart with status %s: %w", cart.Status, ErrCartNotActive)
	}

	item, err := s.Repo.GetItem(ctx, cartID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	opID := fmt.Sprintf("qty-cart-%s-%s", cartID, uuid.NewString())

	switch {
	case quantity == 0:
		// Removal first, then a best-effort release of the full quantity.
		if err := s.Repo.DeleteItem(ctx, cartID, productID); err != nil {
			return nil, err
		}
		if _, err := s.Stock.AdjustStock(ctx, productID, item.Quantity, opID); err != nil {
			logging.FromContext(ctx).Error("release_failed", "cart_id", cartID, "product_id", productID, "error", err)
		}

	case quantity != item.Quantity:
		delta := quantity - item.Quantity

		res, err := s.Stock.AdjustStock(ctx, productID, -delta, opID)
		if err != nil {
			logging.FromContext(ctx).Error("stock_adjust_unreachable", "product_id", productID, "error", err)
			return nil, fmt.Errorf("stock service unavailable: %w", ErrInsufficientStock)
		}
		if !res.Success {
			if res.Status == stockclient.StatusNotFound {
				return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
			}
			return nil, fmt.Errorf("%s: %w", res.Error, ErrInsufficientStock)
		}

		if err := s.Repo.SetItemQuantity(ctx, cartID, productID, quantity); err != nil {
			// Reservation went through but the cart write did not; reverse it.
			if _, compErr := s.Stock.AdjustStock(ctx, productID, delta, opID+"-comp"); compErr != nil {
				logging.FromContext(ctx).Error("compensation_failed", "product_id", productID, "error", compErr)
			}
			return nil, err
		}
	}

	if err := s.Repo.UpdateCartExpiry(ctx, cartID, time.Now().UTC().Add(s.ttl())); err != nil {
		return nil, err
	}

	return s.Repo.GetCart(ctx, cartID)
}

// DeleteCart releases the stock held by every item best-effort, then removes
// the cart and its rows. It reports how many items had their stock restored.
func (s *CartService) DeleteCart(ctx context.Context, cartID uuid.UUID) (int, error) {
	cart, err := s.Repo.GetCart(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("cart %s: %w", cartID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	restored := s.releaseCartStock(ctx, cart, "delete")

	if err := s.Repo.DeleteCart(ctx, cartID); err != nil {
		return 0, err
	}

	s.publish(ctx, cartID.String(), map[string]any{
		"type":          "cart_deleted",
		"cartID":        cartID,
		"itemsRestored": restored,
	})
	return restored, nil
}

// expireIfDue is the single expire-and-release routine shared by the lazy
// read/write path and the periodic sweeper, so a cart's observable status is
// the same whichever discovers it first.
func (s *CartService) expireIfDue(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.Status != models.CartStatusActive || cart.ExpiresAt == nil || time.Now().UTC().Before(*cart.ExpiresAt) {
		return cart, nil
	}

	s.releaseCartStock(ctx, cart, "expire")

	if err := s.Repo.UpdateCartStatus(ctx, cart.ID, models.CartStatusExpired); err != nil {
		return nil, err
	}
	cart.Status = models.CartStatusExpired

	s.publish(ctx, cart.ID.String(), map[string]any{
		"type":   "cart_expired",
		"cartID": cart.ID,
	})
	return cart, nil
}

// releaseCartStock gives back every item's quantity in partial mode. Release
// is advisory: a failed release never blocks the state transition, the opId
// tagging keeps a replay harmless.
func (s *CartService) releaseCartStock(ctx context.Context, cart *models.Cart, reason string) int {
	if len(cart.Items) == 0 {
		return 0
	}

	items := make([]stockclient.ReservationItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, stockclient.ReservationItem{
			ProductID: item.ProductID,
			QtyDelta:  item.Quantity,
			OpID:      fmt.Sprintf("%s-cart-%s-%s", reason, cart.ID, item.ProductID),
		})
	}

	batch, err := s.Stock.BatchAdjustStock(ctx, items, false)
	if err != nil {
		logging.FromContext(ctx).Error("release_cart_stock_failed", "cart_id", cart.ID, "reason", reason, "error", err)
		return 0
	}
	return batch.SuccessCount
}

func (s *CartService) publish(ctx context.Context, key string, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "error", err)
	}
}
