package service

import "errors"

var (
	ErrValidation           = errors.New("validation")
	ErrNotFound             = errors.New("not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrConcurrencyExhausted = errors.New("concurrency retries exhausted")
)
