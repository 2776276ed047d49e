package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/Fi44er/tradewallet/internal/service/servicetest"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Emit(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc    *service.Service
	store  *servicetest.Store
	events *recorder
	now    time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		SwapTolerance: 0.02,
		OnlineWindow:  5 * time.Minute,
		BTCNetwork:    "mainnet",
	}
	prices := utils.StaticPrices{
		models.BTC: decimal.NewFromInt(50000),
		models.ETH: decimal.NewFromInt(2500),
	}

	f := &fixture{
		store:  servicetest.New(),
		events: &recorder{},
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := service.NewService(f.store, prices, f.events, cfg, utils.NopLogger())
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return f.now })
	f.svc = svc
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}
