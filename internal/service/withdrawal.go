package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/shopspring/decimal"
)

var alphaNum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

const minBankAccountLen = 8

// WithdrawInput describes either a crypto payout (CoinID and WalletAddress)
// or a bank payout in USDT.
type WithdrawInput struct {
	Amount decimal.Decimal

	CoinID        *uint
	WalletAddress string

	AccountHolderName string
	BankName          string
	BankAccountNumber string
}

func (s *Service) validateCryptoAddress(symbol models.Currency, address string) error {
	if address == "" {
		return fmt.Errorf("%w: wallet address is required", ErrInvalidInput)
	}
	if symbol == models.BTC {
		if err := utils.ValidateBTCAddress(address, s.netParams); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil
	}
	if !alphaNum.MatchString(address) {
		return fmt.Errorf("%w: wallet address must be alphanumeric", ErrInvalidInput)
	}
	return nil
}

func validateBankDetails(holder, bank, account string) error {
	switch {
	case holder == "" || len(holder) > 255:
		return fmt.Errorf("%w: account holder name is required", ErrInvalidInput)
	case bank == "" || len(bank) > 255:
		return fmt.Errorf("%w: bank name is required", ErrInvalidInput)
	case len(account) < minBankAccountLen:
		return fmt.Errorf("%w: bank account number must have at least %d characters", ErrInvalidInput, minBankAccountLen)
	}
	return nil
}

// RequestWithdrawal reserves the amount immediately and leaves the request
// under review. Rejection gives the reservation back.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uint, in WithdrawInput) (*models.Withdraw, error) {
	if !validAmount(in.Amount) {
		return nil, ErrInvalidAmount
	}

	w := &models.Withdraw{
		UserID:         userID,
		AmountWithdraw: in.Amount,
		Status:         models.WithdrawUnderReview,
	}

	if in.CoinID != nil {
		coin, err := s.repo.GetCoinType(ctx, *in.CoinID)
		if err != nil {
			return nil, err
		}
		if coin == nil {
			return nil, fmt.Errorf("%w: unknown coin %d", ErrInvalidInput, *in.CoinID)
		}
		address := strings.TrimSpace(in.WalletAddress)
		if err := s.validateCryptoAddress(coin.Symbol, address); err != nil {
			return nil, err
		}
		w.CoinID = &coin.ID
		w.Symbol = coin.Symbol
		w.CryptoWallet = address
	} else {
		holder := strings.TrimSpace(in.AccountHolderName)
		bank := strings.TrimSpace(in.BankName)
		account := strings.TrimSpace(in.BankAccountNumber)
		if err := validateBankDetails(holder, bank, account); err != nil {
			return nil, err
		}
		w.Symbol = models.USDT
		w.AccountHolderName = holder
		w.BankName = bank
		w.BankAccountNumber = account
	}

	var (
		balance *models.Balance
		user    *models.User
	)
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUnauthorized
		}

		b, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if !b.Debit(w.Symbol, w.AmountWithdraw) {
			return fmt.Errorf("%w: insufficient %s balance for this withdrawal", ErrInsufficientFunds, strings.ToUpper(string(w.Symbol)))
		}

		if err := tx.CreateWithdraw(ctx, w); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}
		balance, user = b, u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Withdrawal #%d of %s %s requested by user %d", w.ID, w.AmountWithdraw, w.Symbol, userID)
	s.publishBalance(ctx, balance)
	s.publisher.Emit(ctx, events.WithdrawalRequestedEvent{
		WithdrawID:  w.ID,
		UserID:      userID,
		UserEmail:   user.Email,
		Symbol:      string(w.Symbol),
		Amount:      w.AmountWithdraw,
		Destination: withdrawDestination(w),
	})
	return w, nil
}

func withdrawDestination(w *models.Withdraw) string {
	if w.IsCrypto() {
		return w.CryptoWallet
	}
	return fmt.Sprintf("%s, %s (%s)", w.AccountHolderName, w.BankName, w.BankAccountNumber)
}

// ApproveWithdrawal marks a pending request as paid out. The funds already
// left the balance when it was created.
func (s *Service) ApproveWithdrawal(ctx context.Context, id uint) (*models.Withdraw, error) {
	var withdraw *models.Withdraw
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		w, err := lockPendingWithdraw(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		w.Status = models.WithdrawApproved
		w.ApprovedAt = &now
		if err := tx.UpdateWithdraw(ctx, w); err != nil {
			return err
		}
		withdraw = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Withdrawal #%d approved", id)
	return withdraw, nil
}

// RejectWithdrawal returns the reserved amount to the column it came from.
func (s *Service) RejectWithdrawal(ctx context.Context, id uint) (*models.Withdraw, error) {
	var (
		withdraw *models.Withdraw
		balance  *models.Balance
	)
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		w, err := lockPendingWithdraw(ctx, tx, id)
		if err != nil {
			return err
		}

		b, err := tx.LockBalance(ctx, w.UserID)
		if err != nil {
			return err
		}
		b.Credit(w.Symbol, w.AmountWithdraw)

		now := s.now()
		w.Status = models.WithdrawRejected
		w.RejectedAt = &now
		if err := tx.UpdateWithdraw(ctx, w); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, b); err != nil {
			return err
		}
		withdraw, balance = w, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Withdrawal #%d rejected, %s %s returned to user %d", id, withdraw.AmountWithdraw, withdraw.Symbol, withdraw.UserID)
	s.publishBalance(ctx, balance)
	return withdraw, nil
}

type WithdrawUpdate struct {
	Amount            decimal.Decimal
	WalletAddress     string
	AccountHolderName string
	BankName          string
	BankAccountNumber string
}

// UpdateWithdrawal lets an admin correct a request still under review. A
// changed amount moves the reservation by the difference.
func (s *Service) UpdateWithdrawal(ctx context.Context, id uint, in WithdrawUpdate) (*models.Withdraw, error) {
	if !validAmount(in.Amount) {
		return nil, ErrInvalidAmount
	}

	var (
		withdraw *models.Withdraw
		balance  *models.Balance
	)
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		w, err := lockPendingWithdraw(ctx, tx, id)
		if err != nil {
			return err
		}

		if w.IsCrypto() {
			address := strings.TrimSpace(in.WalletAddress)
			if err := s.validateCryptoAddress(w.Symbol, address); err != nil {
				return err
			}
			w.CryptoWallet = address
		} else {
			holder := strings.TrimSpace(in.AccountHolderName)
			bank := strings.TrimSpace(in.BankName)
			account := strings.TrimSpace(in.BankAccountNumber)
			if err := validateBankDetails(holder, bank, account); err != nil {
				return err
			}
			w.AccountHolderName, w.BankName, w.BankAccountNumber = holder, bank, account
		}

		if delta := in.Amount.Sub(w.AmountWithdraw); !delta.IsZero() {
			b, err := tx.LockBalance(ctx, w.UserID)
			if err != nil {
				return err
			}
			if delta.IsPositive() {
				if !b.Debit(w.Symbol, delta) {
					return fmt.Errorf("%w: user cannot cover an increase of %s %s", ErrInsufficientFunds, delta, w.Symbol)
				}
			} else {
				b.Credit(w.Symbol, delta.Neg())
			}
			if err := tx.SaveBalance(ctx, b); err != nil {
				return err
			}
			balance = b
		}

		w.AmountWithdraw = in.Amount
		if err := tx.UpdateWithdraw(ctx, w); err != nil {
			return err
		}
		withdraw = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Withdrawal #%d updated", id)
	if balance != nil {
		s.publishBalance(ctx, balance)
	}
	return withdraw, nil
}

func lockPendingWithdraw(ctx context.Context, tx Repository, id uint) (*models.Withdraw, error) {
	w, err := tx.LockWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("withdrawal #%d: %w", id, ErrNotFound)
	}
	if w.Status != models.WithdrawUnderReview {
		return nil, fmt.Errorf("withdrawal #%d is %s: %w", id, w.Status, ErrAlreadyProcessed)
	}
	return w, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, filter ListFilter) ([]models.Withdraw, error) {
	withdraws, err := s.repo.ListWithdraws(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdraws, nil
}
