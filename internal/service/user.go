package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
	"gorm.io/datatypes"
)

const minPasswordLen = 8

type UserView struct {
	models.User
	IsOnline bool `json:"is_online"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	open, err := s.RegistrationOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrRegistrationClosed
	}

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || len(name) > 255 {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Name: name, Email: email, Password: hash, Role: models.RoleUser}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("User %d registered", user.ID)
	return user, nil
}

// Login checks credentials. Blocked accounts are refused even with the right
// password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPassword(password, user.Password) {
		return nil, ErrUnauthorized
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes it when the
// email already exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		if user.IsAdmin() {
			return nil
		}
		return s.repo.UpdateUserColumns(ctx, user.ID, map[string]interface{}{"role": models.RoleAdmin})
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: admin password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	return s.repo.CreateUser(ctx, &models.User{
		Name:            "Administrator",
		Email:           email,
		Password:        hash,
		Role:            models.RoleAdmin,
		EmailVerifiedAt: &now,
	})
}

// TouchActivity records a request from the user and announces when they come
// online. Unknown and blocked users are refused.
func (s *Service) TouchActivity(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	now := s.now()
	wasOnline := user.IsOnline(now, s.config.OnlineWindow)
	if err := s.repo.TouchUser(ctx, userID, now); err != nil {
		s.logger.Warnf("Failed to update last activity for user %d: %v", userID, err)
		return user, nil
	}
	user.LastActivity = &now

	if !wasOnline {
		s.publisher.Emit(ctx, events.UserOnlineEvent{UserID: userID, IsOnline: true})
	}
	return user, nil
}

// Logout clears the user's activity mark and announces them offline.
func (s *Service) Logout(ctx context.Context, userID uint) error {
	err := s.repo.UpdateUserColumns(ctx, userID, map[string]interface{}{"last_activity": nil})
	if err != nil {
		return err
	}
	s.publisher.Emit(ctx, events.UserOnlineEvent{UserID: userID, IsOnline: false})
	s.logger.Infof("User %d logged out", userID)
	return nil
}

// ExpirePresence clears the activity mark of users idle for longer than the
// online window and announces each of them offline. It returns how many
// users went offline.
func (s *Service) ExpirePresence(ctx context.Context) (int, error) {
	before := s.now().Add(-s.config.OnlineWindow)
	idle, err := s.repo.ListIdleUsers(ctx, before)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, u := range idle {
		cleared, err := s.repo.ExpireActivity(ctx, u.ID, before)
		if err != nil {
			s.logger.Errorf("Failed to expire presence of user %d: %v", u.ID, err)
			continue
		}
		if !cleared {
			continue
		}
		expired++
		s.publisher.Emit(ctx, events.UserOnlineEvent{UserID: u.ID, IsOnline: false})
	}
	return expired, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.repo.ListUsers(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, UserView{User: u, IsOnline: u.IsOnline(now, s.config.OnlineWindow)})
	}
	return views, nil
}

func (s *Service) OnlineUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListActiveUsers(ctx, s.now().Add(-s.config.OnlineWindow))
}

func (s *Service) ToggleBlock(ctx context.Context, id uint) (*models.User, error) {
	if err := s.repo.ToggleUserBlocked(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("User %d blocked=%t", id, user.IsBlocked)
	return user, nil
}

// ApproveUser marks the account's email as verified.
func (s *Service) ApproveUser(ctx context.Context, id uint) (*models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	changed, err := s.repo.MarkUserVerified(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("user %d is already verified: %w", id, ErrAlreadyProcessed)
	}
	return s.GetUser(ctx, id)
}

type userSnapshot struct {
	Balance   *models.Balance   `json:"balance"`
	Wallets   []models.Wallet   `json:"wallets"`
	Withdraws []models.Withdraw `json:"withdraws"`
}

// DeleteUser archives the account with its balance, deposits and
// withdrawals, then removes it. Dependent rows go with it.
func (s *Service) DeleteUser(ctx context.Context, adminID, id uint) error {
	if adminID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}

	return s.repo.WithTransaction(ctx, func(tx Repository) error {
		user, err := tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}

		var snap userSnapshot
		if snap.Balance, err = tx.GetBalance(ctx, id); err != nil {
			return err
		}
		if snap.Wallets, err = tx.ListWallets(ctx, ListFilter{UserID: id}); err != nil {
			return err
		}
		if snap.Withdraws, err = tx.ListWithdraws(ctx, ListFilter{UserID: id}); err != nil {
			return err
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to encode user snapshot: %w", err)
		}

		archived := &models.DeletedUser{
			OriginalUserID:   user.ID,
			Name:             user.Name,
			Email:            user.Email,
			Password:         user.Password,
			Role:             user.Role,
			IsBlocked:        user.IsBlocked,
			LossApplied:      user.LossApplied,
			EmailVerifiedAt:  user.EmailVerifiedAt,
			LastActivity:     user.LastActivity,
			DeletedByAdminID: adminID,
			OriginalUserData: datatypes.JSON(raw),
			DeletedAt:        s.now(),
		}
		if err := tx.CreateDeletedUser(ctx, archived); err != nil {
			return err
		}
		if err := tx.DeleteUser(ctx, id); err != nil {
			return err
		}

		s.logger.Infof("User %d deleted by admin %d, archived as #%d", id, adminID, archived.ID)
		return nil
	})
}

func (s *Service) ListDeletedUsers(ctx context.Context) ([]models.DeletedUser, error) {
	return s.repo.ListDeletedUsers(ctx)
}

// RestoreUser recreates an archived account together with the balance,
// deposits and withdrawals captured when it was deleted.
func (s *Service) RestoreUser(ctx context.Context, archivedID uint) (*models.User, error) {
	var restored *models.User
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		archived, err := tx.GetDeletedUser(ctx, archivedID)
		if err != nil {
			return err
		}
		if archived == nil {
			return fmt.Errorf("deleted user #%d: %w", archivedID, ErrNotFound)
		}

		existing, err := tx.GetUserByEmail(ctx, archived.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}

		var snap userSnapshot
		if len(archived.OriginalUserData) > 0 {
			if err := json.Unmarshal(archived.OriginalUserData, &snap); err != nil {
				return fmt.Errorf("failed to decode user snapshot: %w", err)
			}
		}

		user := &models.User{
			Name:            archived.Name,
			Email:           archived.Email,
			Password:        archived.Password,
			Role:            archived.Role,
			IsBlocked:       archived.IsBlocked,
			LossApplied:     archived.LossApplied,
			EmailVerifiedAt: archived.EmailVerifiedAt,
			LastActivity:    archived.LastActivity,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		if snap.Balance != nil {
			b, err := tx.LockBalance(ctx, user.ID)
			if err != nil {
				return err
			}
			b.UsdtBalance = snap.Balance.UsdtBalance
			b.BtcBalance = snap.Balance.BtcBalance
			b.EthBalance = snap.Balance.EthBalance
			if err := tx.SaveBalance(ctx, b); err != nil {
				return err
			}
		}
		for _, w := range snap.Wallets {
			w.ID, w.UserID, w.User = 0, user.ID, nil
			if err := tx.CreateWallet(ctx, &w); err != nil {
				return err
			}
		}
		for _, w := range snap.Withdraws {
			w.ID, w.UserID, w.User, w.Coin = 0, user.ID, nil, nil
			if err := tx.CreateWithdraw(ctx, &w); err != nil {
				return err
			}
		}

		if err := tx.DeleteDeletedUser(ctx, archivedID); err != nil {
			return err
		}
		restored = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Deleted user #%d restored as user %d", archivedID, restored.ID)
	return restored, nil
}

// TradeLossUsers lists regular users with their forced-loss flag.
func (s *Service) TradeLossUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx, models.RoleUser)
}
