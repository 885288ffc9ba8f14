package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus is the lifecycle state of a transfer record.
// A transfer is created as pending and transitions exactly once
// to completed or failed.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferFailed
}

// User is an account holder. Registration and credential handling live
// in the auth service; the ledger only reads these rows.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
}

// Currency is reference data: a three-letter code and a display name.
type Currency struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// Account holds one user's balance in one currency. At most one account
// exists per (user, currency) pair.
type Account struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	CurrencyID uuid.UUID       `json:"currency_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// Transfer is the durable record of a single money-movement attempt.
type Transfer struct {
	ID           uuid.UUID       `json:"id"`
	FromAccount  uuid.UUID       `json:"from_account"`
	ToAccount    uuid.UUID       `json:"to_account"`
	Amount       decimal.Decimal `json:"amount"`
	Status       TransferStatus  `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Balance is one entry of a user's per-currency balance listing.
type Balance struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"balance"`
}
