package service

import (
	"sort"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
)

// LossPolicy decides how a trade resolves. It is read from the user once per
// settlement and handed to SettleTrade.
type LossPolicy int

const (
	LossNotForced LossPolicy = iota
	LossForced
)

func LossPolicyFor(user *models.User) LossPolicy {
	if user != nil && user.LossApplied {
		return LossForced
	}
	return LossNotForced
}

type TradeOutcome struct {
	Status       string
	ProfitEarned decimal.Decimal
	// Credit is what goes back to the balance after the stake was taken.
	Credit decimal.Decimal
}

// SettleTrade resolves a trade whose stake has already been debited. A forced
// loss keeps the stake; otherwise stake and profit are returned.
func SettleTrade(stake, profit decimal.Decimal, policy LossPolicy) TradeOutcome {
	if policy == LossForced {
		return TradeOutcome{
			Status:       models.TradeLoss,
			ProfitEarned: decimal.Zero,
			Credit:       decimal.Zero,
		}
	}
	return TradeOutcome{
		Status:       models.TradeCompleted,
		ProfitEarned: profit,
		Credit:       stake.Add(profit),
	}
}

type Plan struct {
	Name    string          `json:"name"`
	Days    int             `json:"days"`
	Rate    decimal.Decimal `json:"rate"`
	Minimum decimal.Decimal `json:"minimum"`
}

func (p Plan) Profit(amount decimal.Decimal) decimal.Decimal {
	return utils.RoundAmount(amount.Mul(p.Rate))
}

var plans = map[string]Plan{
	"7_days":  {Name: "7_days", Days: 7, Rate: decimal.RequireFromString("0.10"), Minimum: decimal.NewFromInt(1000)},
	"15_days": {Name: "15_days", Days: 15, Rate: decimal.RequireFromString("0.25"), Minimum: decimal.NewFromInt(10000)},
	"30_days": {Name: "30_days", Days: 30, Rate: decimal.RequireFromString("0.50"), Minimum: decimal.NewFromInt(30000)},
	"60_days": {Name: "60_days", Days: 60, Rate: decimal.RequireFromString("0.90"), Minimum: decimal.NewFromInt(50000)},
}

func LookupPlan(name string) (Plan, bool) {
	p, ok := plans[name]
	return p, ok
}

// Plans lists the investment plans by term.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Days < out[j].Days })
	return out
}
