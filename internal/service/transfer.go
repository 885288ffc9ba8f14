package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/store"
)

// Ledger is the storage surface the transfer engine needs. *store.Store
// satisfies it through NewLedger.
type Ledger interface {
	Begin(ctx context.Context) (LedgerTx, error)

	// SetTransferFailed must run as its own unit of work: the failure
	// record has to survive even though the balance mutation rolls back.
	SetTransferFailed(ctx context.Context, id uuid.UUID, message string) error
}

// LedgerTx is one transaction's worth of ledger reads and writes. Lookups
// observe a snapshot consistent with the writes that follow them.
type LedgerTx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CurrencyIDByCode(ctx context.Context, code string) (uuid.UUID, error)
	UserIDByUsername(ctx context.Context, username string) (uuid.UUID, error)
	AccountID(ctx context.Context, userID, currencyID uuid.UUID) (uuid.UUID, error)

	InsertTransfer(ctx context.Context, transfer *models.Transfer) error
	LockAccounts(ctx context.Context, a, b uuid.UUID) (map[uuid.UUID]models.Account, error)
	AddToBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error
	SetTransferCompleted(ctx context.Context, id uuid.UUID) error
}

// TransferService moves funds between two accounts of the same currency,
// keeping a durable audit record of every attempt that named real parties.
type TransferService struct {
	ledger Ledger
	newID  func() uuid.UUID
}

// NewTransferService wires the engine to its storage and an identifier
// generator (uuid.New in production, a fixed generator in tests).
func NewTransferService(ledger Ledger, newID func() uuid.UUID) *TransferService {
	return &TransferService{ledger: ledger, newID: newID}
}

// Transfer moves amount from the caller's account to toUsername's account
// in the given currency and returns the transfer identifier.
//
// Requests that fail resolution (unknown currency, recipient, or account)
// leave no trace. Once both parties resolve, a pending transfer row is
// committed before the balance check so every real attempt stays auditable;
// the row then transitions exactly once to completed or failed.
func (s *TransferService) Transfer(ctx context.Context, fromUserID uuid.UUID, toUsername string, amount decimal.Decimal, currencyCode string) (uuid.UUID, error) {
	if !amount.IsPositive() {
		return uuid.Nil, ErrInvalidAmount
	}

	transfer, err := s.openTransfer(ctx, fromUserID, toUsername, amount, currencyCode)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.settle(ctx, transfer); err != nil {
		return uuid.Nil, s.fail(ctx, transfer.ID, err)
	}

	return transfer.ID, nil
}

// openTransfer resolves the parties and commits the pending audit record.
// Any resolution miss rolls the transaction back whole: garbage requests
// leave no audit noise.
func (s *TransferService) openTransfer(ctx context.Context, fromUserID uuid.UUID, toUsername string, amount decimal.Decimal, currencyCode string) (*models.Transfer, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	currencyID, err := tx.CurrencyIDByCode(ctx, currencyCode)
	if err != nil {
		return nil, resolveErr(err, ErrInvalidCurrency)
	}

	toUserID, err := tx.UserIDByUsername(ctx, toUsername)
	if err != nil {
		return nil, resolveErr(err, ErrRecipientNotFound)
	}

	fromAccount, err := tx.AccountID(ctx, fromUserID, currencyID)
	if err != nil {
		return nil, resolveErr(err, ErrSenderAccountMissing)
	}

	toAccount, err := tx.AccountID(ctx, toUserID, currencyID)
	if err != nil {
		return nil, resolveErr(err, ErrRecipientAccountMissing)
	}

	transfer := &models.Transfer{
		ID:          s.newID(),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Status:      models.TransferPending,
	}
	if err := tx.InsertTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return transfer, nil
}

// settle applies the balance mutation atomically with the completed status.
func (s *TransferService) settle(ctx context.Context, transfer *models.Transfer) error {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	accounts, err := tx.LockAccounts(ctx, transfer.FromAccount, transfer.ToAccount)
	if err != nil {
		return err
	}

	if accounts[transfer.FromAccount].Balance.LessThan(transfer.Amount) {
		return ErrInsufficientFunds
	}

	if err := tx.AddToBalance(ctx, transfer.FromAccount, transfer.Amount.Neg()); err != nil {
		return err
	}
	if err := tx.AddToBalance(ctx, transfer.ToAccount, transfer.Amount); err != nil {
		return err
	}
	if err := tx.SetTransferCompleted(ctx, transfer.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// fail persists the failed status with the triggering message, best effort,
// and hands the original error back to the caller either way.
func (s *TransferService) fail(ctx context.Context, id uuid.UUID, cause error) error {
	if err := s.ledger.SetTransferFailed(ctx, id, cause.Error()); err != nil {
		slog.Warn("could not persist failed transfer status",
			"transfer_id", id, "cause", cause, "error", err)
	}
	return cause
}

// resolveErr maps a missing row onto the matching validation error and
// passes infrastructure errors through untouched.
func resolveErr(err error, missing error) error {
	if errors.Is(err, store.ErrNotFound) {
		return missing
	}
	return err
}
