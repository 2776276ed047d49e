package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 2)

	bus.Subscribe(EventTypeBalanceUpdated, func(ctx context.Context, e Event) { got <- e })
	bus.Subscribe(EventTypeBalanceUpdated, func(ctx context.Context, e Event) { got <- e })
	bus.Subscribe(EventTypeUserOnline, func(ctx context.Context, e Event) {
		t.Errorf("unexpected delivery of %s", e.Type())
	})

	bus.Emit(context.Background(), BalanceUpdatedEvent{UserID: 7})

	for i := 0; i < 2; i++ {
		select {
		case e := <-got:
			assert.Equal(t, uint(7), e.(BalanceUpdatedEvent).UserID)
		case <-time.After(time.Second):
			t.Fatal("handler was not called")
		}
	}
}

func TestBus_PanickingHandlerIsContained(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})

	bus.Subscribe(EventTypeUserOnline, func(ctx context.Context, e Event) { panic("boom") })
	bus.Subscribe(EventTypeUserOnline, func(ctx context.Context, e Event) { close(done) })

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), UserOnlineEvent{UserID: 1, IsOnline: true})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler was not called")
	}
}

func TestBus_HandlerContextOutlivesCaller(t *testing.T) {
	bus := NewBus()
	errs := make(chan error, 1)

	bus.Subscribe(EventTypeDepositSubmitted, func(ctx context.Context, e Event) {
		time.Sleep(10 * time.Millisecond)
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Emit(ctx, DepositSubmittedEvent{WalletID: 3})
	cancel()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestBus_DeliversInEmitOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	const n = 2000
	var (
		mu   sync.Mutex
		seen []int64
	)
	done := make(chan struct{})

	bus.Subscribe(EventTypeBalanceUpdated, func(ctx context.Context, e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.(BalanceUpdatedEvent).UsdtBalance.IntPart())
		if len(seen) == n {
			close(done)
		}
	})

	for i := 0; i < n; i++ {
		bus.Emit(context.Background(), BalanceUpdatedEvent{UserID: 1, UsdtBalance: decimal.NewFromInt(int64(i)), Version: uint64(i + 1)})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every event was delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range seen {
		require.Equal(t, int64(i), v, "delivery %d out of order", i)
	}
	assert.Equal(t, int64(n-1), seen[len(seen)-1])
}

func TestBus_SlowSubscriberDoesNotDelayOthers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	release := make(chan struct{})
	fast := make(chan struct{}, 1)

	bus.Subscribe(EventTypeUserOnline, func(ctx context.Context, e Event) { <-release })
	bus.Subscribe(EventTypeUserOnline, func(ctx context.Context, e Event) { fast <- struct{}{} })

	bus.Emit(context.Background(), UserOnlineEvent{UserID: 1, IsOnline: true})

	select {
	case <-fast:
	case <-time.After(time.Second):
		t.Fatal("fast subscriber waited for the slow one")
	}
	close(release)
}
