package domain

import "errors"

var (
	// Account errors
	ErrAccountLocked     = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// Transaction errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrUnknownKind          = errors.New("unknown transaction type")
	ErrDuplicateTransaction = errors.New("transaction id already used")

	// Dispute errors
	ErrTransactionNotFound = errors.New("referenced transaction not found")
	ErrClientMismatch      = errors.New("transaction belongs to a different client")
	ErrNotDisputable       = errors.New("transaction cannot be disputed")
	ErrNotDisputed         = errors.New("transaction is not under dispute")
)
