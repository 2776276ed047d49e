package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	USDT Currency = "usdt"
	BTC  Currency = "btc"
	ETH  Currency = "eth"
)

var Currencies = []Currency{USDT, BTC, ETH}

func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case USDT, BTC, ETH:
		return c, true
	}
	return "", false
}

// Column is the balances column that holds this currency.
func (c Currency) Column() string {
	return string(c) + "_balance"
}

type Balance struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	UserID      uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UsdtBalance decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"usdt_balance"`
	BtcBalance  decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"btc_balance"`
	EthBalance  decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"eth_balance"`
	Version     uint64          `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (b *Balance) field(c Currency) *decimal.Decimal {
	switch c {
	case USDT:
		return &b.UsdtBalance
	case BTC:
		return &b.BtcBalance
	case ETH:
		return &b.EthBalance
	}
	return nil
}

func (b *Balance) Get(c Currency) decimal.Decimal {
	if f := b.field(c); f != nil {
		return *f
	}
	return decimal.Zero
}

func (b *Balance) Credit(c Currency, amount decimal.Decimal) {
	if f := b.field(c); f != nil {
		*f = f.Add(amount)
	}
}

// Debit subtracts amount unless that would leave the column negative, in
// which case the balance is left untouched and false is returned.
func (b *Balance) Debit(c Currency, amount decimal.Decimal) bool {
	f := b.field(c)
	if f == nil || f.LessThan(amount) {
		return false
	}
	*f = f.Sub(amount)
	return true
}
