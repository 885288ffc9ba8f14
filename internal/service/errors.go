package service

import "errors"

// Transfer failures the engine distinguishes for callers. Anything not in
// this list is a storage or infrastructure error and surfaces wrapped.
var (
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrInvalidCurrency         = errors.New("invalid currency code")
	ErrRecipientNotFound       = errors.New("recipient not found")
	ErrSenderAccountMissing    = errors.New("sender account not found for this currency")
	ErrRecipientAccountMissing = errors.New("recipient account not found for this currency")
	ErrInsufficientFunds       = errors.New("insufficient funds")
)
