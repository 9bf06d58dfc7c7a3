package transport

import "github.com/google/uuid"

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
}

type BatchCreateProductsRequest struct {
	Products []CreateProductRequest `json:"products"`
}

type AdjustStockRequest struct {
	Delta int    `json:"delta"`
	OpID  string `json:"op_id"`
}

type ReservationItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	QtyDelta  int       `json:"qty_delta"`
	OpID      string    `json:"op_id"`
}

type BatchReservationRequest struct {
	Items        []ReservationItemRequest `json:"items"`
	AllOrNothing bool                     `json:"all_or_nothing"`
}

type AdjustStockResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Success   bool      `json:"success"`
	Status    string    `json:"status"`
	Stock     int       `json:"stock"`
	Version   int       `json:"version"`
	Error     string    `json:"error,omitempty"`
}

// BatchReservationResponse rows carry the same shape as the single-adjust
// response so both stock endpoints decode identically on the caller's side.
type BatchReservationResponse struct {
	Results      []AdjustStockResponse `json:"results"`
	SuccessCount int                   `json:"success_count"`
	ErrorCount   int                   `json:"error_count"`
}
