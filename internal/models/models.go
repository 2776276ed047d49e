package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	Role            string     `gorm:"size:16;default:user" json:"role"`
	IsBlocked       bool       `gorm:"default:false" json:"is_blocked"`
	LossApplied     bool       `gorm:"default:false" json:"loss_applied"`
	LastActivity    *time.Time `json:"last_activity"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Balance *Balance `gorm:"foreignKey:UserID" json:"balance,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsOnline reports whether the user was active within window of now.
func (u *User) IsOnline(now time.Time, window time.Duration) bool {
	return u.LastActivity != nil && now.Sub(*u.LastActivity) <= window
}

const (
	DirectionUp   = "up"
	DirectionFall = "fall"

	TradePending   = "pending"
	TradeCompleted = "completed"
	TradeLoss      = "loss"
)

type Trade struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	User         *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Symbol       string          `gorm:"size:32;not null" json:"symbol"`
	Direction    string          `gorm:"size:8;not null" json:"direction"`
	DeliveryTime int             `json:"delivery_time"`
	TradeAmount  decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"trade_amount"`
	TradeProfit  decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"trade_profit"`
	ProfitEarned decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"profit_earned"`
	Status       string          `gorm:"size:16;default:pending" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
)

type Investment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Plan      string          `gorm:"size:16;not null" json:"plan"`
	Amount    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	Profit    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"profit"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    time.Time       `gorm:"index" json:"ends_at"`
	Status    string          `gorm:"size:16;default:active;index" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Due reports whether an active investment has reached its end date.
func (i *Investment) Due(now time.Time) bool {
	return i.Status == InvestmentActive && !now.Before(i.EndsAt)
}

const (
	WithdrawUnderReview = "Under Review"
	WithdrawApproved    = "approved"
	WithdrawRejected    = "rejected"
)

// Withdraw is a payout request. The amount is taken from the balance column
// named by Symbol when the request is created.
type Withdraw struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"index;not null" json:"user_id"`
	User              *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CoinID            *uint           `json:"coin_id"`
	Coin              *CoinType       `gorm:"foreignKey:CoinID" json:"coin,omitempty"`
	Symbol            Currency        `gorm:"size:8;not null" json:"symbol"`
	AmountWithdraw    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount_withdraw"`
	Status            string          `gorm:"size:16;default:'Under Review';index" json:"status"`
	CryptoWallet      string          `gorm:"size:128" json:"crypto_wallet,omitempty"`
	AccountHolderName string          `gorm:"size:255" json:"account_holder_name,omitempty"`
	BankName          string          `gorm:"size:255" json:"bank_name,omitempty"`
	BankAccountNumber string          `gorm:"size:128" json:"bank_account_number,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at"`
	RejectedAt        *time.Time      `json:"rejected_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (w *Withdraw) IsCrypto() bool {
	return w.CoinID != nil
}

const (
	DepositPending  = "pending"
	DepositApproved = "approved"
	DepositRejected = "rejected"
)

// Wallet is a manual deposit submitted with a payment slip.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Symbol    Currency        `gorm:"size:8;not null;index" json:"symbol"`
	Amount    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	SlipPath  string          `gorm:"size:255" json:"slip_path"`
	Status    string          `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CoinType struct {
	ID     uint     `gorm:"primaryKey" json:"id"`
	Name   string   `gorm:"size:64;not null" json:"name"`
	Symbol Currency `gorm:"size:8;uniqueIndex;not null" json:"symbol"`
}

// DepositDetail is the admin-managed receiving address for one currency.
type DepositDetail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Symbol    Currency  `gorm:"size:8;uniqueIndex;not null" json:"symbol"`
	Address   string    `gorm:"size:255" json:"address"`
	QRCode    string    `gorm:"size:255" json:"qr_code"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DepositDetail) TableName() string {
	return "crypto_deposit_details"
}

// DeletedUser archives a removed account together with a snapshot of its
// balance, deposits and withdrawals.
type DeletedUser struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	OriginalUserID   uint           `gorm:"index" json:"original_user_id"`
	Name             string         `gorm:"size:255" json:"name"`
	Email            string         `gorm:"size:255;index" json:"email"`
	Password         string         `gorm:"size:255" json:"-"`
	Role             string         `gorm:"size:16" json:"role"`
	IsBlocked        bool           `json:"is_blocked"`
	LossApplied      bool           `json:"loss_applied"`
	EmailVerifiedAt  *time.Time     `json:"email_verified_at"`
	LastActivity     *time.Time     `json:"last_activity"`
	DeletedByAdminID uint           `json:"deleted_by_admin_id"`
	OriginalUserData datatypes.JSON `gorm:"type:jsonb" json:"original_user_data"`
	DeletedAt        time.Time      `gorm:"index" json:"deleted_at"`
}

type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:255" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

const SettingRegistrationDisabled = "registration_disabled"

// AdminMessage is one of the announcement lines shown on the dashboard.
type AdminMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"size:255;not null" json:"message"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminSecurity is the second password an admin sets for sensitive screens,
// with three recovery answers. Every secret is a bcrypt hash.
type AdminSecurity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AdminID   uint      `gorm:"uniqueIndex;not null" json:"admin_id"`
	Admin     *User     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Question1 string    `gorm:"size:255" json:"question1"`
	Answer1   string    `gorm:"size:255;not null" json:"-"`
	Question2 string    `gorm:"size:255" json:"question2"`
	Answer2   string    `gorm:"size:255;not null" json:"-"`
	Question3 string    `gorm:"size:255" json:"question3"`
	Answer3   string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Answer returns the stored hash for question 1, 2 or 3.
func (a *AdminSecurity) Answer(question int) (string, bool) {
	switch question {
	case 1:
		return a.Answer1, true
	case 2:
		return a.Answer2, true
	case 3:
		return a.Answer3, true
	}
	return "", false
}

// UserIPLocation is one recorded sign-in location.
type UserIPLocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	IPAddress string    `gorm:"size:64;not null" json:"ip_address"`
	City      string    `gorm:"size:255" json:"city"`
	Region    string    `gorm:"size:255" json:"region"`
	Country   string    `gorm:"size:255" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Balance{},
		&CoinType{},
		&Trade{},
		&Investment{},
		&Withdraw{},
		&Wallet{},
		&DepositDetail{},
		&DeletedUser{},
		&Setting{},
		&AdminMessage{},
		&AdminSecurity{},
		&UserIPLocation{},
	}
}
