// Package stockclient talks to the catalog service's stock API. It is the
// network seam between carts and product stock: callers get structured
// reservation results back and never see raw transport errors.
package stockclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess              = "success"
	StatusInsufficientStock    = "insufficient_stock"
	StatusNotFound             = "not_found"
	StatusConcurrencyExhausted = "concurrency_exhausted"
)

type ReservationItem struct {
	ProductID uuid.UUID `json:"product_id"`
	QtyDelta  int       `json:"qty_delta"`
	OpID      string    `json:"op_id,omitempty"`
}

type AdjustResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Success   bool      `json:"success"`
	Status    string    `json:"status"`
	Stock     int       `json:"stock"`
	Version   int       `json:"version"`
	Error     string    `json:"error,omitempty"`
}

type BatchResult struct {
	Results      []AdjustResult `json:"results"`
	SuccessCount int            `json:"success_count"`
	ErrorCount   int            `json:"error_count"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(catalogURL string) *Client {
	return &Client{
		baseURL: catalogURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type adjustRequest struct {
	Delta int    `json:"delta"`
	OpID  string `json:"op_id,omitempty"`
}

type batchRequest struct {
	Items        []ReservationItem `json:"items"`
	AllOrNothing bool              `json:"all_or_nothing"`
}

func (c *Client) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, opID string) (*AdjustResult, error) {
	var result AdjustResult
	url := fmt.Sprintf("%s/api/products/%s/stock/adjust", c.baseURL, productID)
	if err := c.post(ctx, url, adjustRequest{Delta: delta, OpID: opID}, &result); err != nil {
		return nil, err
	}
	if result.ProductID == uuid.Nil {
		result.ProductID = productID
	}
	return &result, nil
}

func (c *Client) BatchAdjustStock(ctx context.Context, items []ReservationItem, allOrNothing bool) (*BatchResult, error) {
	var result BatchResult
	url := c.baseURL + "/api/products/reservation/batch"
	if err := c.post(ctx, url, batchRequest{Items: items, AllOrNothing: allOrNothing}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post decodes the body for any status code: the stock API reports per-item
// failures inside the payload, so a 4xx still carries a usable result.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("stock service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
