package service

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyProcessed  = errors.New("already processed")

	ErrInvalidInput       = errors.New("invalid input")
	ErrQuoteUnavailable   = errors.New("price quote unavailable")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRegistrationClosed = errors.New("registration is disabled")
	ErrUserBlocked        = errors.New("account is blocked")
)
