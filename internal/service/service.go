package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"
)

// ListFilter narrows history queries. Zero fields match everything.
type ListFilter struct {
	UserID uint
	Symbol models.Currency
	Status string
}

type Repository interface {
	// WithTransaction runs fn inside one database transaction. Row locks
	// taken through tx are held until fn returns.
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error

	// LockBalance returns the user's balance row locked for update, creating
	// a zero row first when none exists.
	LockBalance(ctx context.Context, userID uint) (*models.Balance, error)
	GetBalance(ctx context.Context, userID uint) (*models.Balance, error)
	SaveBalance(ctx context.Context, balance *models.Balance) error

	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// UpdateUserColumns writes the given columns of one user row and
	// returns ErrNotFound when the row does not exist.
	UpdateUserColumns(ctx context.Context, id uint, columns map[string]interface{}) error
	ToggleUserBlocked(ctx context.Context, id uint) error
	MarkUserVerified(ctx context.Context, id uint, at time.Time) (bool, error)
	DeleteUser(ctx context.Context, id uint) error
	ListUsers(ctx context.Context, role string) ([]models.User, error)
	ListActiveUsers(ctx context.Context, since time.Time) ([]models.User, error)
	ListIdleUsers(ctx context.Context, before time.Time) ([]models.User, error)
	TouchUser(ctx context.Context, id uint, at time.Time) error
	ExpireActivity(ctx context.Context, id uint, before time.Time) (bool, error)

	CreateDeletedUser(ctx context.Context, archived *models.DeletedUser) error
	GetDeletedUser(ctx context.Context, id uint) (*models.DeletedUser, error)
	DeleteDeletedUser(ctx context.Context, id uint) error
	ListDeletedUsers(ctx context.Context) ([]models.DeletedUser, error)

	CreateTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, userID uint) ([]models.Trade, error)

	CreateInvestment(ctx context.Context, investment *models.Investment) error
	LockInvestment(ctx context.Context, id uint) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, investment *models.Investment) error
	ListInvestments(ctx context.Context, filter ListFilter) ([]models.Investment, error)

	CreateWithdraw(ctx context.Context, withdraw *models.Withdraw) error
	LockWithdraw(ctx context.Context, id uint) (*models.Withdraw, error)
	UpdateWithdraw(ctx context.Context, withdraw *models.Withdraw) error
	ListWithdraws(ctx context.Context, filter ListFilter) ([]models.Withdraw, error)

	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	LockWallet(ctx context.Context, id uint) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error
	ListWallets(ctx context.Context, filter ListFilter) ([]models.Wallet, error)

	GetCoinType(ctx context.Context, id uint) (*models.CoinType, error)
	ListCoinTypes(ctx context.Context) ([]models.CoinType, error)

	GetDepositDetail(ctx context.Context, symbol models.Currency) (*models.DepositDetail, error)
	SaveDepositDetail(ctx context.Context, detail *models.DepositDetail) error

	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	SaveSetting(ctx context.Context, setting *models.Setting) error

	ListAdminMessages(ctx context.Context) ([]models.AdminMessage, error)
	ReplaceAdminMessages(ctx context.Context, messages []models.AdminMessage) error

	GetAdminSecurity(ctx context.Context, adminID uint) (*models.AdminSecurity, error)
	CreateAdminSecurity(ctx context.Context, security *models.AdminSecurity) error
	SaveAdminSecurity(ctx context.Context, security *models.AdminSecurity) error

	CreateIPLocation(ctx context.Context, location *models.UserIPLocation) error
	ListIPLocations(ctx context.Context, userID uint) ([]models.UserIPLocation, error)
}

// QuoteProvider prices one currency in another.
type QuoteProvider interface {
	Rate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error)
}

// Publisher receives notifications after a mutation has committed.
type Publisher interface {
	Emit(ctx context.Context, event events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, events.Event) {}

type Service struct {
	repo      Repository
	quotes    QuoteProvider
	publisher Publisher
	locator   Locator
	addresses *utils.AddressDeriver
	netParams *chaincfg.Params
	logger    *utils.Logger
	config    *config.Config
	now       func() time.Time
}

func NewService(repo Repository, quotes QuoteProvider, publisher Publisher, cfg *config.Config, logger *utils.Logger) (*Service, error) {
	netParams, err := utils.NetParams(cfg.BTCNetwork)
	if err != nil {
		return nil, err
	}

	var addresses *utils.AddressDeriver
	if cfg.BTCDepositXPub != "" {
		addresses, err = utils.NewAddressDeriver(cfg.BTCDepositXPub, netParams)
		if err != nil {
			return nil, fmt.Errorf("failed to load deposit key: %w", err)
		}
	}

	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &Service{
		repo:      repo,
		quotes:    quotes,
		publisher: publisher,
		addresses: addresses,
		netParams: netParams,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}, nil
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
