package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
)

// SecurityQuestions are asked, in order, when an admin sets up or recovers
// the second password.
var SecurityQuestions = [3]string{
	"What is your best friend's name?",
	"What is your favorite pet's name?",
	"What is your birth city's name?",
}

const maxAnswerLen = 255

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

func (s *Service) SecurityConfigured(ctx context.Context, adminID uint) (bool, error) {
	security, err := s.repo.GetAdminSecurity(ctx, adminID)
	if err != nil {
		return false, err
	}
	return security != nil, nil
}

// SetupSecurity stores the admin's second password and recovery answers.
// It can run once per admin; later changes go through recovery.
func (s *Service) SetupSecurity(ctx context.Context, adminID uint, password string, answers [3]string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	var hashed [3]string
	for i, answer := range answers {
		answer = normalizeAnswer(answer)
		if answer == "" || len(answer) > maxAnswerLen {
			return fmt.Errorf("%w: answer %d must have 1 to %d characters", ErrInvalidInput, i+1, maxAnswerLen)
		}
		hash, err := utils.HashPassword(answer)
		if err != nil {
			return fmt.Errorf("failed to hash answer: %w", err)
		}
		hashed[i] = hash
	}

	existing, err := s.repo.GetAdminSecurity(ctx, adminID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("security for admin %d: %w", adminID, ErrAlreadyProcessed)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	security := &models.AdminSecurity{
		AdminID:   adminID,
		Password:  hash,
		Question1: SecurityQuestions[0],
		Answer1:   hashed[0],
		Question2: SecurityQuestions[1],
		Answer2:   hashed[1],
		Question3: SecurityQuestions[2],
		Answer3:   hashed[2],
	}
	if err := s.repo.CreateAdminSecurity(ctx, security); err != nil {
		return fmt.Errorf("failed to save security settings: %w", err)
	}

	s.logger.Infof("Security setup completed for admin %d", adminID)
	return nil
}

func (s *Service) adminSecurity(ctx context.Context, adminID uint) (*models.AdminSecurity, error) {
	security, err := s.repo.GetAdminSecurity(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if security == nil {
		return nil, fmt.Errorf("security for admin %d is not set up: %w", adminID, ErrNotFound)
	}
	return security, nil
}

// VerifySecurityPassword checks the admin's second password.
func (s *Service) VerifySecurityPassword(ctx context.Context, adminID uint, password string) error {
	security, err := s.adminSecurity(ctx, adminID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(password, security.Password) {
		s.logger.Warnf("Incorrect security password attempt for admin %d", adminID)
		return ErrUnauthorized
	}
	return nil
}

// RecoverSecurityPassword replaces the second password after a correct
// answer to question 1, 2 or 3.
func (s *Service) RecoverSecurityPassword(ctx context.Context, adminID uint, question int, answer, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	security, err := s.adminSecurity(ctx, adminID)
	if err != nil {
		return err
	}
	stored, ok := security.Answer(question)
	if !ok {
		return fmt.Errorf("%w: question must be 1, 2 or 3", ErrInvalidInput)
	}
	if !utils.CheckPassword(normalizeAnswer(answer), stored) {
		s.logger.Warnf("Incorrect recovery answer for admin %d, question %d", adminID, question)
		return ErrUnauthorized
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	security.Password = hash
	if err := s.repo.SaveAdminSecurity(ctx, security); err != nil {
		return fmt.Errorf("failed to update security password: %w", err)
	}

	s.logger.Infof("Security password recovered for admin %d", adminID)
	return nil
}
