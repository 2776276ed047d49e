package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBalance_DebitCredit(t *testing.T) {
	b := &Balance{UsdtBalance: decimal.NewFromInt(100)}

	assert.True(t, b.Debit(USDT, decimal.NewFromInt(40)))
	assert.True(t, b.Get(USDT).Equal(decimal.NewFromInt(60)))

	t.Run("insufficient leaves balance untouched", func(t *testing.T) {
		assert.False(t, b.Debit(USDT, decimal.NewFromInt(61)))
		assert.True(t, b.Get(USDT).Equal(decimal.NewFromInt(60)))
	})

	t.Run("exact amount drains to zero", func(t *testing.T) {
		assert.True(t, b.Debit(USDT, decimal.NewFromInt(60)))
		assert.True(t, b.Get(USDT).IsZero())
	})

	b.Credit(BTC, decimal.RequireFromString("0.00000001"))
	assert.Equal(t, "0.00000001", b.Get(BTC).String())
	assert.True(t, b.Get(ETH).IsZero())

	assert.False(t, b.Debit(Currency("doge"), decimal.NewFromInt(1)))
}

func TestParseCurrency(t *testing.T) {
	c, ok := ParseCurrency(" BTC ")
	assert.True(t, ok)
	assert.Equal(t, BTC, c)
	assert.Equal(t, "btc_balance", c.Column())

	_, ok = ParseCurrency("doge")
	assert.False(t, ok)
}

func TestInvestment_Due(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	inv := Investment{Status: InvestmentActive, EndsAt: now}

	assert.True(t, inv.Due(now))
	assert.False(t, inv.Due(now.Add(-time.Second)))

	inv.Status = InvestmentCompleted
	assert.False(t, inv.Due(now.Add(time.Hour)))
}

func TestUser_IsOnline(t *testing.T) {
	now := time.Now()
	u := User{}
	assert.False(t, u.IsOnline(now, 5*time.Minute))

	seen := now.Add(-4 * time.Minute)
	u.LastActivity = &seen
	assert.True(t, u.IsOnline(now, 5*time.Minute))

	seen = now.Add(-6 * time.Minute)
	assert.False(t, u.IsOnline(now, 5*time.Minute))
}
