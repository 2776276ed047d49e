package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Routing(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	alice := hub.register(1, false)
	bob := hub.register(2, false)
	admin := hub.register(99, true)

	hub.Publish(context.Background(), events.BalanceUpdatedEvent{UserID: 1, UsdtBalance: decimal.NewFromInt(5)})
	hub.Publish(context.Background(), events.WithdrawalRequestedEvent{WithdrawID: 7, UserID: 2})

	require.Len(t, alice.send, 1)
	assert.Equal(t, events.EventTypeBalanceUpdated, (<-alice.send).Event)
	assert.Empty(t, bob.send)
	assert.Len(t, admin.send, 2)

	hub.unregister(alice)
	assert.Equal(t, 2, hub.Clients())
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	c := hub.register(1, false)

	for i := 0; i < sendBuffer+5; i++ {
		hub.Publish(context.Background(), events.BalanceUpdatedEvent{UserID: 1})
	}
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_SkipsStaleBalances(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	c := hub.register(1, false)
	publish := func(v uint64, usdt int64) {
		hub.Publish(context.Background(), events.BalanceUpdatedEvent{UserID: 1, UsdtBalance: decimal.NewFromInt(usdt), Version: v})
	}

	publish(2, 20)
	publish(1, 10)
	publish(2, 20)
	publish(3, 30)

	require.Len(t, c.send, 2)
	first, last := <-c.send, <-c.send
	assert.Equal(t, uint64(2), first.Data.(events.BalanceUpdatedEvent).Version)
	assert.Equal(t, "30", last.Data.(events.BalanceUpdatedEvent).UsdtBalance.String())

	// versions are tracked per user
	hub.Publish(context.Background(), events.BalanceUpdatedEvent{UserID: 2, Version: 1})
	assert.Empty(t, c.send)
}

func TestHub_ServeStreamsEvents(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	bus := events.NewBus()
	hub.Subscribe(bus)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, 3, false)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	bus.Emit(context.Background(), events.BalanceUpdatedEvent{UserID: 3, BtcBalance: decimal.RequireFromString("0.5")})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string `json:"event"`
		Data  struct {
			UserID     uint   `json:"user_id"`
			BtcBalance string `json:"btc_balance"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "balance.updated", msg.Event)
	assert.Equal(t, uint(3), msg.Data.UserID)
	assert.Equal(t, "0.5", msg.Data.BtcBalance)
}
