package service_test

import (
	"context"
	"testing"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q, err := f.svc.Quote(ctx, models.BTC, models.USDT, dec("0.5"))
	require.NoError(t, err)
	assertAmount(t, "25000", q.ToAmount)
	assertAmount(t, "50000", q.Rate)

	q, err = f.svc.Quote(ctx, models.BTC, models.ETH, dec("1"))
	require.NoError(t, err)
	assertAmount(t, "20", q.ToAmount)

	_, err = f.svc.Quote(ctx, models.BTC, models.BTC, dec("1"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.svc.Quote(ctx, models.BTC, models.USDT, dec("-1"))
	assert.ErrorIs(t, err, service.ErrInvalidAmount)

	_, err = f.svc.Quote(ctx, models.Currency("doge"), models.USDT, dec("1"))
	assert.ErrorIs(t, err, service.ErrQuoteUnavailable)
}

func TestSwap(t *testing.T) {
	ctx := context.Background()

	t.Run("moves value between columns", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Alice", "alice@example.com", dec("1000"))

		res, err := f.svc.Swap(ctx, user.ID, service.SwapInput{
			From: models.USDT, To: models.BTC, FromAmount: dec("500"),
		})
		require.NoError(t, err)
		assertAmount(t, "0.01", res.ToAmount)

		b := f.store.Balance(user.ID)
		assertAmount(t, "500", b.UsdtBalance)
		assertAmount(t, "0.01", b.BtcBalance)
	})

	t.Run("insufficient source balance", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Bob", "bob@example.com", dec("10"))

		_, err := f.svc.Swap(ctx, user.ID, service.SwapInput{
			From: models.USDT, To: models.ETH, FromAmount: dec("25"),
		})
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		b := f.store.Balance(user.ID)
		assertAmount(t, "10", b.UsdtBalance)
		assert.True(t, b.EthBalance.IsZero())
	})

	t.Run("expected amount within tolerance", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Carol", "carol@example.com", dec("2500"))

		_, err := f.svc.Swap(ctx, user.ID, service.SwapInput{
			From: models.USDT, To: models.ETH, FromAmount: dec("2500"), ToAmount: dec("1.01"),
		})
		require.NoError(t, err)
		assertAmount(t, "1", f.store.Balance(user.ID).EthBalance)
	})

	t.Run("stale client quote", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Dan", "dan@example.com", dec("2500"))

		_, err := f.svc.Swap(ctx, user.ID, service.SwapInput{
			From: models.USDT, To: models.ETH, FromAmount: dec("2500"), ToAmount: dec("2"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		assertAmount(t, "2500", f.store.Balance(user.ID).UsdtBalance)
	})
}
