package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fi44er/tradewallet/internal/models"
)

const maxAdminMessages = 3

func (s *Service) RegistrationOpen(ctx context.Context) (bool, error) {
	setting, err := s.repo.GetSetting(ctx, models.SettingRegistrationDisabled)
	if err != nil {
		return false, fmt.Errorf("failed to read registration setting: %w", err)
	}
	if setting == nil {
		return true, nil
	}
	disabled, _ := strconv.ParseBool(setting.Value)
	return !disabled, nil
}

func (s *Service) SetRegistrationOpen(ctx context.Context, open bool) error {
	err := s.repo.SaveSetting(ctx, &models.Setting{
		Key:   models.SettingRegistrationDisabled,
		Value: strconv.FormatBool(!open),
	})
	if err != nil {
		return fmt.Errorf("failed to save registration setting: %w", err)
	}
	s.logger.Infof("Registration open=%t", open)
	return nil
}

// AdminMessages returns exactly three announcement slots, padding with
// empty strings.
func (s *Service) AdminMessages(ctx context.Context) ([]string, error) {
	stored, err := s.repo.ListAdminMessages(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, maxAdminMessages)
	for _, m := range stored {
		if m.Active && len(out) < maxAdminMessages {
			out = append(out, m.Message)
		}
	}
	for len(out) < maxAdminMessages {
		out = append(out, "")
	}
	return out, nil
}

// SetAdminMessages replaces the announcements with the first three non-empty
// lines.
func (s *Service) SetAdminMessages(ctx context.Context, lines []string) error {
	messages := make([]models.AdminMessage, 0, maxAdminMessages)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 255 {
			return fmt.Errorf("%w: message longer than 255 characters", ErrInvalidInput)
		}
		if len(messages) == maxAdminMessages {
			break
		}
		messages = append(messages, models.AdminMessage{Message: line, Active: true})
	}
	return s.repo.ReplaceAdminMessages(ctx, messages)
}
