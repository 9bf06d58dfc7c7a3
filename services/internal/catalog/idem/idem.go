// Package idem records the outcome of stock adjustments by operation id so a
// replayed adjustment (a retried compensation, a repeated release) returns the
// recorded result instead of moving stock twice.
package idem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stock:op:"

type Record struct {
	Stock   int `json:"stock"`
	Version int `json:"version"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Get returns the recorded outcome for opID, or nil if the operation is new.
// A nil store never matches, so idempotency stays optional at runtime.
func (s *Store) Get(ctx context.Context, opID string) (*Record, error) {
	if s == nil || opID == "" {
		return nil, nil
	}

	raw, err := s.rdb.Get(ctx, keyPrefix+opID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idem get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("idem decode: %w", err)
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, opID string, rec Record) error {
	if s == nil || opID == "" {
		return nil
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("idem encode: %w", err)
	}

	if err := s.rdb.SetNX(ctx, keyPrefix+opID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("idem put: %w", err)
	}
	return nil
}
