// Package servicetest provides an in-memory service.Repository for tests.
package servicetest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/shopspring/decimal"
)

var ErrDuplicate = errors.New("duplicate key value violates unique constraint")

type table[T any] map[uint]T

func (t table[T]) sorted() []T {
	out := make([]T, 0, len(t))
	for _, id := range slices.Sorted(maps.Keys(t)) {
		out = append(out, t[id])
	}
	return out
}

type state struct {
	users       table[models.User]
	balances    table[models.Balance]
	trades      table[models.Trade]
	investments table[models.Investment]
	withdraws   table[models.Withdraw]
	wallets     table[models.Wallet]
	coins       table[models.CoinType]
	details     table[models.DepositDetail]
	deleted     table[models.DeletedUser]
	messages    table[models.AdminMessage]
	securities  table[models.AdminSecurity]
	locations   table[models.UserIPLocation]
	settings    map[string]models.Setting
	nextID      uint
}

func (s *state) clone() *state {
	return &state{
		users:       maps.Clone(s.users),
		balances:    maps.Clone(s.balances),
		trades:      maps.Clone(s.trades),
		investments: maps.Clone(s.investments),
		withdraws:   maps.Clone(s.withdraws),
		wallets:     maps.Clone(s.wallets),
		coins:       maps.Clone(s.coins),
		details:     maps.Clone(s.details),
		deleted:     maps.Clone(s.deleted),
		messages:    maps.Clone(s.messages),
		securities:  maps.Clone(s.securities),
		locations:   maps.Clone(s.locations),
		settings:    maps.Clone(s.settings),
		nextID:      s.nextID,
	}
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

// Store keeps every table in maps. Transactions are serialized and rolled
// back by restoring a snapshot when fn fails.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
}

var _ service.Repository = (*Store)(nil)

// New returns an empty store seeded with the btc, eth and usdt coin types
// (ids 1, 2 and 3).
func New() *Store {
	st := &state{
		users:       table[models.User]{},
		balances:    table[models.Balance]{},
		trades:      table[models.Trade]{},
		investments: table[models.Investment]{},
		withdraws:   table[models.Withdraw]{},
		wallets:     table[models.Wallet]{},
		coins:       table[models.CoinType]{},
		details:     table[models.DepositDetail]{},
		deleted:     table[models.DeletedUser]{},
		messages:    table[models.AdminMessage]{},
		securities:  table[models.AdminSecurity]{},
		locations:   table[models.UserIPLocation]{},
		settings:    map[string]models.Setting{},
	}
	for _, c := range []models.CoinType{
		{Name: "Bitcoin", Symbol: models.BTC},
		{Name: "Ethereum", Symbol: models.ETH},
		{Name: "Tether", Symbol: models.USDT},
	} {
		c.ID = st.id()
		st.coins[c.ID] = c
	}
	return &Store{st: st}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(tx service.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(txView{s}); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// txView is the repository handed to transaction callbacks. The transaction
// lock is already held.
type txView struct {
	*Store
}

func (t txView) WithTransaction(ctx context.Context, fn func(tx service.Repository) error) error {
	return fn(t)
}

// AddUser inserts a user with the given USDT balance and returns it.
func (s *Store) AddUser(name, email string, usdt decimal.Decimal) *models.User {
	u := &models.User{Name: name, Email: email, Role: models.RoleUser}
	_ = s.CreateUser(context.Background(), u)
	if !usdt.IsZero() {
		s.SetBalance(u.ID, models.USDT, usdt)
	}
	return u
}

// SetBalance overwrites one balance column.
func (s *Store) SetBalance(userID uint, currency models.Currency, amount decimal.Decimal) {
	b, _ := s.LockBalance(context.Background(), userID)
	switch currency {
	case models.BTC:
		b.BtcBalance = amount
	case models.ETH:
		b.EthBalance = amount
	default:
		b.UsdtBalance = amount
	}
	_ = s.SaveBalance(context.Background(), b)
}

// Balance returns the stored balance, or zeros.
func (s *Store) Balance(userID uint) models.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.st.balances {
		if b.UserID == userID {
			return b
		}
	}
	return models.Balance{UserID: userID}
}

func (s *Store) findBalance(userID uint) (models.Balance, bool) {
	for _, b := range s.st.balances {
		if b.UserID == userID {
			return b, true
		}
	}
	return models.Balance{}, false
}

func (s *Store) LockBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.findBalance(userID)
	if !ok {
		b = models.Balance{ID: s.st.id(), UserID: userID, CreatedAt: time.Now()}
		s.st.balances[b.ID] = b
	}
	return &b, nil
}

func (s *Store) GetBalance(ctx context.Context, userID uint) (*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.findBalance(userID)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) SaveBalance(ctx context.Context, balance *models.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance.ID == 0 {
		balance.ID = s.st.id()
	}
	balance.Version++
	balance.UpdatedAt = time.Now()
	s.st.balances[balance.ID] = *balance
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.ID = s.st.id()
	user.CreatedAt = time.Now()
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateUserColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return service.ErrNotFound
	}
	for column, value := range columns {
		switch column {
		case "role":
			u.Role = value.(string)
		case "is_blocked":
			u.IsBlocked = value.(bool)
		case "loss_applied":
			u.LossApplied = value.(bool)
		case "last_activity":
			u.LastActivity = timePtr(value)
		case "email_verified_at":
			u.EmailVerifiedAt = timePtr(value)
		default:
			return fmt.Errorf("unknown user column %q", column)
		}
	}
	u.UpdatedAt = time.Now()
	s.st.users[id] = u
	return nil
}

func timePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}

func (s *Store) ToggleUserBlocked(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return service.ErrNotFound
	}
	u.IsBlocked = !u.IsBlocked
	s.st.users[id] = u
	return nil
}

func (s *Store) MarkUserVerified(ctx context.Context, id uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok || u.EmailVerifiedAt != nil {
		return false, nil
	}
	u.EmailVerifiedAt = &at
	s.st.users[id] = u
	return true, nil
}

// DeleteUser removes the user and every row that references it.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.users, id)
	maps.DeleteFunc(s.st.balances, func(_ uint, b models.Balance) bool { return b.UserID == id })
	maps.DeleteFunc(s.st.trades, func(_ uint, t models.Trade) bool { return t.UserID == id })
	maps.DeleteFunc(s.st.investments, func(_ uint, i models.Investment) bool { return i.UserID == id })
	maps.DeleteFunc(s.st.withdraws, func(_ uint, w models.Withdraw) bool { return w.UserID == id })
	maps.DeleteFunc(s.st.wallets, func(_ uint, w models.Wallet) bool { return w.UserID == id })
	maps.DeleteFunc(s.st.securities, func(_ uint, a models.AdminSecurity) bool { return a.AdminID == id })
	maps.DeleteFunc(s.st.locations, func(_ uint, l models.UserIPLocation) bool { return l.UserID == id })
	return nil
}

func (s *Store) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.users.sorted(), func(u models.User) bool {
		return role != "" && u.Role != role
	}), nil
}

func (s *Store) ListActiveUsers(ctx context.Context, since time.Time) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.users.sorted(), func(u models.User) bool {
		return u.Role != models.RoleUser || u.LastActivity == nil || u.LastActivity.Before(since)
	}), nil
}

func (s *Store) ListIdleUsers(ctx context.Context, before time.Time) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.users.sorted(), func(u models.User) bool {
		return u.LastActivity == nil || !u.LastActivity.Before(before)
	}), nil
}

func (s *Store) ExpireActivity(ctx context.Context, id uint, before time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok || u.LastActivity == nil || !u.LastActivity.Before(before) {
		return false, nil
	}
	u.LastActivity = nil
	s.st.users[id] = u
	return true, nil
}

func (s *Store) TouchUser(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil
	}
	u.LastActivity = &at
	s.st.users[id] = u
	return nil
}

func (s *Store) CreateDeletedUser(ctx context.Context, archived *models.DeletedUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	archived.ID = s.st.id()
	s.st.deleted[archived.ID] = *archived
	return nil
}

func (s *Store) GetDeletedUser(ctx context.Context, id uint) (*models.DeletedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.st.deleted[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) DeleteDeletedUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.deleted, id)
	return nil
}

func (s *Store) ListDeletedUsers(ctx context.Context) ([]models.DeletedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleted.sorted(), nil
}

func (s *Store) CreateTrade(ctx context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade.ID = s.st.id()
	trade.CreatedAt = time.Now()
	s.st.trades[trade.ID] = *trade
	return nil
}

func (s *Store) ListTrades(ctx context.Context, userID uint) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.trades.sorted(), func(t models.Trade) bool {
		return userID != 0 && t.UserID != userID
	}), nil
}

func match(filter service.ListFilter, userID uint, symbol models.Currency, status string) bool {
	return (filter.UserID == 0 || filter.UserID == userID) &&
		(filter.Symbol == "" || filter.Symbol == symbol) &&
		(filter.Status == "" || filter.Status == status)
}

func (s *Store) CreateInvestment(ctx context.Context, investment *models.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	investment.ID = s.st.id()
	investment.CreatedAt = time.Now()
	s.st.investments[investment.ID] = *investment
	return nil
}

func (s *Store) LockInvestment(ctx context.Context, id uint) (*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.st.investments[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, investment *models.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.investments[investment.ID] = *investment
	return nil
}

func (s *Store) ListInvestments(ctx context.Context, filter service.ListFilter) ([]models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.investments.sorted(), func(i models.Investment) bool {
		return !match(filter, i.UserID, models.USDT, i.Status)
	}), nil
}

func (s *Store) CreateWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	withdraw.ID = s.st.id()
	withdraw.CreatedAt = time.Now()
	s.st.withdraws[withdraw.ID] = *withdraw
	return nil
}

func (s *Store) LockWithdraw(ctx context.Context, id uint) (*models.Withdraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.withdraws[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *Store) UpdateWithdraw(ctx context.Context, withdraw *models.Withdraw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.withdraws[withdraw.ID] = *withdraw
	return nil
}

func (s *Store) ListWithdraws(ctx context.Context, filter service.ListFilter) ([]models.Withdraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.withdraws.sorted(), func(w models.Withdraw) bool {
		return !match(filter, w.UserID, w.Symbol, w.Status)
	}), nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet.ID = s.st.id()
	wallet.CreatedAt = time.Now()
	s.st.wallets[wallet.ID] = *wallet
	return nil
}

func (s *Store) LockWallet(ctx context.Context, id uint) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *Store) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.wallets[wallet.ID] = *wallet
	return nil
}

func (s *Store) ListWallets(ctx context.Context, filter service.ListFilter) ([]models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(s.st.wallets.sorted(), func(w models.Wallet) bool {
		return !match(filter, w.UserID, w.Symbol, w.Status)
	}), nil
}

func (s *Store) GetCoinType(ctx context.Context, id uint) (*models.CoinType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.coins[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListCoinTypes(ctx context.Context) ([]models.CoinType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.coins.sorted(), nil
}

func (s *Store) GetDepositDetail(ctx context.Context, symbol models.Currency) (*models.DepositDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.st.details {
		if d.Symbol == symbol {
			return &d, nil
		}
	}
	return nil, nil
}

func (s *Store) SaveDepositDetail(ctx context.Context, detail *models.DepositDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if detail.ID == 0 {
		detail.ID = s.st.id()
	}
	s.st.details[detail.ID] = *detail
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.settings[key]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) SaveSetting(ctx context.Context, setting *models.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.settings[setting.Key] = *setting
	return nil
}

func (s *Store) ListAdminMessages(ctx context.Context) ([]models.AdminMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.messages.sorted(), nil
}

func (s *Store) ReplaceAdminMessages(ctx context.Context, messages []models.AdminMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.messages = table[models.AdminMessage]{}
	for _, m := range messages {
		m.ID = s.st.id()
		s.st.messages[m.ID] = m
	}
	return nil
}

func (s *Store) GetAdminSecurity(ctx context.Context, adminID uint) (*models.AdminSecurity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.st.securities {
		if a.AdminID == adminID {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateAdminSecurity(ctx context.Context, security *models.AdminSecurity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.st.securities {
		if a.AdminID == security.AdminID {
			return ErrDuplicate
		}
	}
	security.ID = s.st.id()
	security.CreatedAt = time.Now()
	s.st.securities[security.ID] = *security
	return nil
}

func (s *Store) SaveAdminSecurity(ctx context.Context, security *models.AdminSecurity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	security.UpdatedAt = time.Now()
	s.st.securities[security.ID] = *security
	return nil
}

func (s *Store) CreateIPLocation(ctx context.Context, location *models.UserIPLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	location.ID = s.st.id()
	location.CreatedAt = time.Now()
	s.st.locations[location.ID] = *location
	return nil
}

func (s *Store) ListIPLocations(ctx context.Context, userID uint) ([]models.UserIPLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.DeleteFunc(s.st.locations.sorted(), func(l models.UserIPLocation) bool {
		return userID != 0 && l.UserID != userID
	})
	slices.Reverse(out)
	for i := range out {
		if u, ok := s.st.users[out[i].UserID]; ok {
			out[i].User = &u
		}
	}
	return out, nil
}
