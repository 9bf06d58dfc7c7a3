// Package outcome carries the tri-state result envelope shared by every
// mutating endpoint: an operation either fully succeeds, fully fails, or
// lands somewhere in between with a per-item error list.
package outcome

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	Success Status = "success"
	Failure Status = "failure"
	Partial Status = "partial"
)

// ForCounts collapses per-item counts into the aggregate status.
func ForCounts(successCount, errorCount int) Status {
	switch {
	case errorCount == 0:
		return Success
	case successCount == 0:
		return Failure
	default:
		return Partial
	}
}

type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target"`
}

type Meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchMeta struct {
	Meta
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	TotalItems   int `json:"total_items"`
}

type Envelope struct {
	Success Status      `json:"success"`
	Data    any         `json:"data,omitempty"`
	Errors  []ItemError `json:"errors,omitempty"`
	Meta    any         `json:"meta"`
}

func NewMeta() Meta {
	return Meta{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

func NewBatchMeta(successCount, errorCount, totalItems int) BatchMeta {
	return BatchMeta{
		Meta:         NewMeta(),
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		TotalItems:   totalItems,
	}
}
