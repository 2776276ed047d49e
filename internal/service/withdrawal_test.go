package service_test

import (
	"context"
	"testing"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coinBTC uint = 1
	coinETH uint = 2

	btcAddress = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
)

func bankWithdraw(amount string) service.WithdrawInput {
	return service.WithdrawInput{
		Amount:            dec(amount),
		AccountHolderName: "Alice Example",
		BankName:          "First Bank",
		BankAccountNumber: "1234567890",
	}
}

func TestRequestWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("bank payout reserves usdt", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Alice", "alice@example.com", dec("300"))

		w, err := f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("120"))
		require.NoError(t, err)

		assert.Equal(t, models.WithdrawUnderReview, w.Status)
		assert.Equal(t, models.USDT, w.Symbol)
		assert.False(t, w.IsCrypto())
		assertAmount(t, "180", f.store.Balance(user.ID).UsdtBalance)

		requested := f.events.ofType(events.EventTypeWithdrawalRequested)
		require.Len(t, requested, 1)
		ev := requested[0].(events.WithdrawalRequestedEvent)
		assert.Equal(t, w.ID, ev.WithdrawID)
		assert.Equal(t, "alice@example.com", ev.UserEmail)
		assert.Contains(t, ev.Destination, "First Bank")
	})

	t.Run("crypto payout reserves the coin column", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Bob", "bob@example.com", dec("0"))
		f.store.SetBalance(user.ID, models.BTC, dec("0.5"))

		coin := coinBTC
		w, err := f.svc.RequestWithdrawal(ctx, user.ID, service.WithdrawInput{
			Amount: dec("0.2"), CoinID: &coin, WalletAddress: btcAddress,
		})
		require.NoError(t, err)

		assert.Equal(t, models.BTC, w.Symbol)
		assert.Equal(t, btcAddress, w.CryptoWallet)
		assertAmount(t, "0.3", f.store.Balance(user.ID).BtcBalance)
	})

	t.Run("rejects bad destinations", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Carol", "carol@example.com", dec("100"))
		f.store.SetBalance(user.ID, models.BTC, dec("1"))
		btc, eth, unknown := coinBTC, coinETH, uint(42)

		cases := map[string]service.WithdrawInput{
			"invalid btc address": {Amount: dec("0.1"), CoinID: &btc, WalletAddress: "not-an-address"},
			"symbols in address":  {Amount: dec("0.1"), CoinID: &eth, WalletAddress: "0xabc$def"},
			"unknown coin":        {Amount: dec("0.1"), CoinID: &unknown, WalletAddress: "abc"},
			"short account":       {Amount: dec("10"), AccountHolderName: "C", BankName: "B", BankAccountNumber: "123"},
			"missing bank":        {Amount: dec("10"), AccountHolderName: "C", BankAccountNumber: "12345678"},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.svc.RequestWithdrawal(ctx, user.ID, in)
				assert.ErrorIs(t, err, service.ErrInvalidInput)
			})
		}
		assertAmount(t, "100", f.store.Balance(user.ID).UsdtBalance)
		assertAmount(t, "1", f.store.Balance(user.ID).BtcBalance)
	})

	t.Run("amount above balance", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Dan", "dan@example.com", dec("50"))

		_, err := f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("51"))
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		assertAmount(t, "50", f.store.Balance(user.ID).UsdtBalance)

		list, err := f.svc.ListWithdrawals(ctx, service.ListFilter{UserID: user.ID})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestReviewWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("reject returns the reservation", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Alice", "alice@example.com", dec("300"))
		w, err := f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("120"))
		require.NoError(t, err)

		rejected, err := f.svc.RejectWithdrawal(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawRejected, rejected.Status)
		assert.NotNil(t, rejected.RejectedAt)
		assertAmount(t, "300", f.store.Balance(user.ID).UsdtBalance)

		_, err = f.svc.RejectWithdrawal(ctx, w.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
		_, err = f.svc.ApproveWithdrawal(ctx, w.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
		assertAmount(t, "300", f.store.Balance(user.ID).UsdtBalance)
	})

	t.Run("approve leaves the balance alone", func(t *testing.T) {
		f := newFixture(t)
		user := f.store.AddUser("Bob", "bob@example.com", dec("300"))
		w, err := f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("120"))
		require.NoError(t, err)

		approved, err := f.svc.ApproveWithdrawal(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawApproved, approved.Status)
		assert.Equal(t, f.now, *approved.ApprovedAt)
		assertAmount(t, "180", f.store.Balance(user.ID).UsdtBalance)

		_, err = f.svc.RejectWithdrawal(ctx, w.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
		assertAmount(t, "180", f.store.Balance(user.ID).UsdtBalance)
	})

	t.Run("unknown withdrawal", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ApproveWithdrawal(ctx, 404)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestUpdateWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.store.AddUser("Alice", "alice@example.com", dec("300"))
	w, err := f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("100"))
	require.NoError(t, err)
	assertAmount(t, "200", f.store.Balance(user.ID).UsdtBalance)

	update := service.WithdrawUpdate{
		Amount:            dec("150"),
		AccountHolderName: "Alice Example",
		BankName:          "Second Bank",
		BankAccountNumber: "9999999999",
	}
	updated, err := f.svc.UpdateWithdrawal(ctx, w.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Second Bank", updated.BankName)
	assertAmount(t, "150", updated.AmountWithdraw)
	assertAmount(t, "150", f.store.Balance(user.ID).UsdtBalance)

	update.Amount = dec("40")
	_, err = f.svc.UpdateWithdrawal(ctx, w.ID, update)
	require.NoError(t, err)
	assertAmount(t, "260", f.store.Balance(user.ID).UsdtBalance)

	update.Amount = dec("400")
	_, err = f.svc.UpdateWithdrawal(ctx, w.ID, update)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	assertAmount(t, "260", f.store.Balance(user.ID).UsdtBalance)

	_, err = f.svc.RejectWithdrawal(ctx, w.ID)
	require.NoError(t, err)
	assertAmount(t, "300", f.store.Balance(user.ID).UsdtBalance)

	update.Amount = dec("10")
	_, err = f.svc.UpdateWithdrawal(ctx, w.ID, update)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
}
