package service_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.svc.Register(ctx, "Alice", " Alice@Example.com ", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret-pass", user.Password)

	_, err = f.svc.Register(ctx, "Alice", "alice@example.com", "another-pass")
	assert.ErrorIs(t, err, service.ErrEmailTaken)
	_, err = f.svc.Register(ctx, "Bob", "not-an-email", "secret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = f.svc.Register(ctx, "Bob", "bob@example.com", "short")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	logged, err := f.svc.Login(ctx, "ALICE@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = f.svc.Login(ctx, "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.svc.ToggleBlock(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "alice@example.com", "secret-pass")
	assert.ErrorIs(t, err, service.ErrUserBlocked)
	_, err = f.svc.TouchActivity(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrUserBlocked)
}

func TestRegistrationToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	open, err := f.svc.RegistrationOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, f.svc.SetRegistrationOpen(ctx, false))
	_, err = f.svc.Register(ctx, "Alice", "alice@example.com", "secret-pass")
	assert.ErrorIs(t, err, service.ErrRegistrationClosed)

	require.NoError(t, f.svc.SetRegistrationOpen(ctx, true))
	_, err = f.svc.Register(ctx, "Alice", "alice@example.com", "secret-pass")
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.EnsureAdmin(ctx, "admin@example.com", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = f.svc.Login(ctx, "admin@example.com", "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))

	admin, err := f.svc.Login(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestTouchActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.store.AddUser("Alice", "alice@example.com", dec("0"))

	_, err := f.svc.TouchActivity(ctx, user.ID)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.TouchActivity(ctx, user.ID)
	require.NoError(t, err)

	online := f.events.ofType(events.EventTypeUserOnline)
	require.Len(t, online, 1)
	assert.Equal(t, events.UserOnlineEvent{UserID: user.ID, IsOnline: true}, online[0])

	views, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsOnline)

	f.advance(10 * time.Minute)
	views, err = f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.False(t, views[0].IsOnline)
	active, err := f.svc.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	expired, err := f.svc.ExpirePresence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	_, err = f.svc.TouchActivity(ctx, user.ID)
	require.NoError(t, err)
	presence := f.events.ofType(events.EventTypeUserOnline)
	require.Len(t, presence, 3)
	assert.Equal(t, events.UserOnlineEvent{UserID: user.ID, IsOnline: false}, presence[1])
	assert.Equal(t, events.UserOnlineEvent{UserID: user.ID, IsOnline: true}, presence[2])

	_, err = f.svc.TouchActivity(ctx, 999)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, err := f.svc.Register(ctx, "Alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	_, err = f.svc.SetLossApplied(ctx, user.ID, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.EnsureAdmin(ctx, "alice@example.com", ""))

	admin, err := f.svc.Login(ctx, "alice@example.com", "secret-pass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.LossApplied)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.store.AddUser("Alice", "alice@example.com", dec("0"))

	_, err := f.svc.TouchActivity(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, user.ID))

	stored, err := f.svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastActivity)
	active, err := f.svc.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	presence := f.events.ofType(events.EventTypeUserOnline)
	require.Len(t, presence, 2)
	assert.Equal(t, events.UserOnlineEvent{UserID: user.ID, IsOnline: false}, presence[1])

	// the next request within the window announces the user again
	f.advance(time.Second)
	_, err = f.svc.TouchActivity(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, f.events.ofType(events.EventTypeUserOnline), 3)

	assert.ErrorIs(t, f.svc.Logout(ctx, 999), service.ErrNotFound)
}

func TestExpirePresence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	idle := f.store.AddUser("Alice", "alice@example.com", dec("0"))
	active := f.store.AddUser("Bob", "bob@example.com", dec("0"))
	f.store.AddUser("Carol", "carol@example.com", dec("0"))

	_, err := f.svc.TouchActivity(ctx, idle.ID)
	require.NoError(t, err)
	f.advance(4 * time.Minute)
	_, err = f.svc.TouchActivity(ctx, active.ID)
	require.NoError(t, err)
	f.advance(2 * time.Minute)

	expired, err := f.svc.ExpirePresence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	offline := slices.DeleteFunc(f.events.ofType(events.EventTypeUserOnline), func(e events.Event) bool {
		return e.(events.UserOnlineEvent).IsOnline
	})
	assert.Equal(t, []events.Event{events.UserOnlineEvent{UserID: idle.ID, IsOnline: false}}, offline)

	bob, err := f.svc.GetUser(ctx, active.ID)
	require.NoError(t, err)
	assert.NotNil(t, bob.LastActivity)

	expired, err = f.svc.ExpirePresence(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestAdminFlagsDoNotOverwriteEachOther(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.store.AddUser("Alice", "alice@example.com", dec("0"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.ToggleBlock(ctx, user.ID)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.SetLossApplied(ctx, user.ID, true)
		assert.NoError(t, err)
	}()
	wg.Wait()

	_, err := f.svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)

	stored, err := f.svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBlocked)
	assert.True(t, stored.LossApplied)
	assert.NotNil(t, stored.EmailVerifiedAt)

	_, err = f.svc.ToggleBlock(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestApproveUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.store.AddUser("Alice", "alice@example.com", dec("0"))

	approved, err := f.svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.EmailVerifiedAt)

	_, err = f.svc.ApproveUser(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
	_, err = f.svc.ApproveUser(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteAndRestoreUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.store.AddUser("Admin", "admin@example.com", dec("0"))
	user, err := f.svc.Register(ctx, "Alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	f.store.SetBalance(user.ID, models.USDT, dec("300"))
	f.store.SetBalance(user.ID, models.BTC, dec("0.25"))

	_, err = f.svc.RequestWithdrawal(ctx, user.ID, bankWithdraw("100"))
	require.NoError(t, err)
	_, err = f.svc.SubmitDeposit(ctx, user.ID, service.DepositInput{
		Symbol: models.ETH, Amount: dec("1"), SlipPath: "slips/eth.png",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, admin.ID, admin.ID), service.ErrInvalidInput)
	require.NoError(t, f.svc.DeleteUser(ctx, admin.ID, user.ID))

	_, err = f.svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	remaining, err := f.svc.ListWithdrawals(ctx, service.ListFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	archived, err := f.svc.ListDeletedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, user.ID, archived[0].OriginalUserID)
	assert.Equal(t, admin.ID, archived[0].DeletedByAdminID)

	restored, err := f.svc.RestoreUser(ctx, archived[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, user.ID, restored.ID)
	assert.Equal(t, "alice@example.com", restored.Email)

	b := f.store.Balance(restored.ID)
	assertAmount(t, "200", b.UsdtBalance)
	assertAmount(t, "0.25", b.BtcBalance)

	withdraws, err := f.svc.ListWithdrawals(ctx, service.ListFilter{UserID: restored.ID})
	require.NoError(t, err)
	require.Len(t, withdraws, 1)
	assert.Equal(t, models.WithdrawUnderReview, withdraws[0].Status)
	deposits, err := f.svc.ListDeposits(ctx, service.ListFilter{UserID: restored.ID})
	require.NoError(t, err)
	assert.Len(t, deposits, 1)

	_, err = f.svc.Login(ctx, "alice@example.com", "secret-pass")
	assert.NoError(t, err)

	archived, err = f.svc.ListDeletedUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, archived)
	_, err = f.svc.RestoreUser(ctx, 404)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRestoreUserEmailTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.store.AddUser("Admin", "admin@example.com", dec("0"))
	user := f.store.AddUser("Alice", "alice@example.com", dec("5"))

	require.NoError(t, f.svc.DeleteUser(ctx, admin.ID, user.ID))
	f.store.AddUser("Alice Again", "alice@example.com", dec("0"))

	archived, err := f.svc.ListDeletedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	_, err = f.svc.RestoreUser(ctx, archived[0].ID)
	assert.ErrorIs(t, err, service.ErrEmailTaken)

	archived, err = f.svc.ListDeletedUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestAdminMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	msgs, err := f.svc.AdminMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", ""}, msgs)

	require.NoError(t, f.svc.SetAdminMessages(ctx, []string{" maintenance tonight ", "", "new plans", "bonus", "ignored"}))
	msgs, err = f.svc.AdminMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"maintenance tonight", "new plans", "bonus"}, msgs)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	err = f.svc.SetAdminMessages(ctx, []string{string(long)})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
