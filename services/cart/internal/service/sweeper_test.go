package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatech/invcart/services/cart/internal/models"
)

func TestProcessExpiredCarts(t *testing.T) {
	svc, stock := newTestCartService(t)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	stock.seed(first, 50)
	stock.seed(second, 50)

	expired, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.UpsertItems(ctx, expired.ID, []ItemUpdate{
		{ProductID: first, Quantity: 3},
		{ProductID: second, Quantity: 7},
	}, ModeAdd)
	require.NoError(t, err)

	active, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.UpsertItems(ctx, active.ID, []ItemUpdate{{ProductID: first, Quantity: 2}}, ModeAdd)
	require.NoError(t, err)

	require.NoError(t, svc.Repo.UpdateCartExpiry(ctx, expired.ID, time.Now().UTC().Add(-time.Minute)))

	stats, err := svc.ProcessExpiredCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedCarts)
	assert.Equal(t, 2, stats.ReleasedItems)

	swept, err := svc.GetCart(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartStatusExpired, swept.Status)

	// The expired cart's quantities went back; the active cart's hold stays.
	assert.Equal(t, 48, stock.stockOf(first))
	assert.Equal(t, 50, stock.stockOf(second))

	untouched, err := svc.GetCart(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartStatusActive, untouched.Status)

	// A second sweep finds nothing: expired carts no longer match.
	stats, err = svc.ProcessExpiredCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ProcessedCarts)
	assert.Equal(t, 0, stats.ReleasedItems)
}

func TestSweeperRun_Disabled(t *testing.T) {
	svc, _ := newTestCartService(t)

	sw := &Sweeper{Svc: svc, Disabled: true}

	done := make(chan struct{})
	go func() {
		sw.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper must return immediately")
	}
}

func TestSweeperRun_StopsOnContextCancel(t *testing.T) {
	svc, _ := newTestCartService(t)

	ctx, cancel := context.WithCancel(context.Background())
	sw := &Sweeper{Svc: svc, Interval: 10 * time.Millisecond}

	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper must stop when its context is cancelled")
	}
}
