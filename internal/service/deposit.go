package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DepositApprove = "approve"
	DepositReject  = "reject"
)

type DepositInput struct {
	Symbol   models.Currency
	Amount   decimal.Decimal
	SlipPath string
}

// SubmitDeposit records a manual deposit awaiting admin review. Nothing is
// credited until it is approved.
func (s *Service) SubmitDeposit(ctx context.Context, userID uint, in DepositInput) (*models.Wallet, error) {
	if !validAmount(in.Amount) {
		return nil, ErrInvalidAmount
	}
	if in.SlipPath == "" {
		return nil, fmt.Errorf("%w: payment slip is required", ErrInvalidInput)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	wallet := &models.Wallet{
		UserID:   userID,
		Symbol:   in.Symbol,
		Amount:   in.Amount,
		SlipPath: in.SlipPath,
		Status:   models.DepositPending,
	}
	if err := s.repo.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	s.logger.Infof("Deposit #%d of %s %s submitted by user %d", wallet.ID, in.Amount, in.Symbol, userID)
	s.publisher.Emit(ctx, events.DepositSubmittedEvent{
		WalletID:  wallet.ID,
		UserID:    userID,
		UserEmail: user.Email,
		Symbol:    string(wallet.Symbol),
		Amount:    wallet.Amount,
	})
	return wallet, nil
}

// ReviewDeposit approves or rejects a pending deposit. Approval credits the
// deposit's currency once; a deposit that left pending cannot be reviewed
// again.
func (s *Service) ReviewDeposit(ctx context.Context, walletID uint, action string) (*models.Wallet, error) {
	if action != DepositApprove && action != DepositReject {
		return nil, fmt.Errorf("%w: action must be approve or reject", ErrInvalidInput)
	}

	var (
		wallet  *models.Wallet
		balance *models.Balance
	)
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		w, err := tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("deposit #%d: %w", walletID, ErrNotFound)
		}
		if w.Status != models.DepositPending {
			return fmt.Errorf("deposit #%d is %s: %w", walletID, w.Status, ErrAlreadyProcessed)
		}

		if action == DepositReject {
			w.Status = models.DepositRejected
		} else {
			b, err := tx.LockBalance(ctx, w.UserID)
			if err != nil {
				return err
			}
			b.Credit(w.Symbol, w.Amount)
			if err := tx.SaveBalance(ctx, b); err != nil {
				return err
			}
			w.Status = models.DepositApproved
			balance = b
		}

		if err := tx.UpdateWallet(ctx, w); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Deposit #%d %s", walletID, wallet.Status)
	if balance != nil {
		s.publishBalance(ctx, balance)
	}
	return wallet, nil
}

func (s *Service) ListDeposits(ctx context.Context, filter ListFilter) ([]models.Wallet, error) {
	wallets, err := s.repo.ListWallets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return wallets, nil
}

type DepositInfo struct {
	Symbol  models.Currency `json:"symbol"`
	Address string          `json:"address"`
	QRCode  string          `json:"qr_code,omitempty"`
	Network string          `json:"network"`
	Warning string          `json:"warning"`
}

const btcDepositWarning = "ONLY use this address to deposit BTC. Please don't deposit inscriptions, " +
	"NFTs, or any other non-BTC assets, as they can't be credited or returned."

var depositNetworks = map[models.Currency]struct{ network, warning string }{
	models.USDT: {"Tron(TRC20)", "Only send USDT over TRC20 to this address."},
	models.ETH:  {"Ethereum", "Only send ETH over the Ethereum network to this address."},
	models.BTC:  {"Bitcoin", btcDepositWarning},
}

// DepositAddress tells the user where to send funds. With a deposit key
// configured, BTC users get their own derived address.
func (s *Service) DepositAddress(ctx context.Context, userID uint, symbol models.Currency) (*DepositInfo, error) {
	info := &DepositInfo{
		Symbol:  symbol,
		Network: depositNetworks[symbol].network,
		Warning: depositNetworks[symbol].warning,
	}

	detail, err := s.repo.GetDepositDetail(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if detail != nil {
		info.Address = detail.Address
		info.QRCode = detail.QRCode
	}

	if symbol == models.BTC && s.addresses != nil {
		address, err := s.addresses.Address(uint32(userID))
		if err != nil {
			return nil, fmt.Errorf("failed to derive deposit address: %w", err)
		}
		info.Address = address
		info.QRCode = ""
	}

	if info.Address == "" {
		return nil, fmt.Errorf("deposit details for %s: %w", strings.ToUpper(string(symbol)), ErrNotFound)
	}
	return info, nil
}

// SetDepositDetail stores the receiving address and QR image for a currency.
func (s *Service) SetDepositDetail(ctx context.Context, symbol models.Currency, address, qrPath string) (*models.DepositDetail, error) {
	address = strings.TrimSpace(address)
	if address == "" || len(address) > 255 {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if symbol == models.BTC {
		if err := s.validateCryptoAddress(symbol, address); err != nil {
			return nil, err
		}
	}

	detail, err := s.repo.GetDepositDetail(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		detail = &models.DepositDetail{Symbol: symbol}
	}
	detail.Address = address
	if qrPath != "" {
		detail.QRCode = qrPath
	}

	if err := s.repo.SaveDepositDetail(ctx, detail); err != nil {
		return nil, fmt.Errorf("failed to save deposit details: %w", err)
	}
	return detail, nil
}

func (s *Service) ListCoinTypes(ctx context.Context) ([]models.CoinType, error) {
	return s.repo.ListCoinTypes(ctx)
}
