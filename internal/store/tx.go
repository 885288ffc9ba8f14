package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
)

// Tx scopes ledger reads and writes to one database transaction so the
// transfer engine's lookups observe a consistent snapshot with its writes.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// Rollback discards the transaction. Safe to call after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return err
	}
	return nil
}

// CurrencyIDByCode resolves a three-letter currency code, case-sensitive
// as stored. Returns ErrNotFound for codes the ledger does not know.
func (t *Tx) CurrencyIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, "SELECT id FROM currencies WHERE code = $1", code).Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("currency lookup failed: %w", err)
	}
	return id, nil
}

// UserIDByUsername resolves a username to the user's identifier.
func (t *Tx) UserIDByUsername(ctx context.Context, username string) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, "SELECT id FROM users WHERE username = $1", username).Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return id, nil
}

// AccountID resolves the account a user holds in a currency.
func (t *Tx) AccountID(ctx context.Context, userID, currencyID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		"SELECT id FROM accounts WHERE user_id = $1 AND currency_id = $2",
		userID, currencyID,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return id, nil
}

// InsertTransfer writes the pending audit record for a transfer attempt.
func (t *Tx) InsertTransfer(ctx context.Context, transfer *models.Transfer) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO transfers (id, from_account, to_account, amount, status) VALUES ($1, $2, $3, $4::numeric, $5)",
		transfer.ID, transfer.FromAccount, transfer.ToAccount,
		transfer.Amount.String(), string(transfer.Status),
	)
	if err != nil {
		return fmt.Errorf("transfer insert failed: %w", err)
	}
	return nil
}

// LockAccounts acquires row locks on both accounts and returns their fresh
// balances. Locks are taken in ascending account-id order so two transfers
// touching the same pair cannot deadlock, and concurrent transfers cannot
// both pass the balance check against a stale read.
func (t *Tx) LockAccounts(ctx context.Context, a, b uuid.UUID) (map[uuid.UUID]models.Account, error) {
	ids := []uuid.UUID{a, b}
	if b.String() < a.String() {
		ids[0], ids[1] = b, a
	}
	if ids[0] == ids[1] {
		ids = ids[:1]
	}

	accounts := make(map[uuid.UUID]models.Account, len(ids))
	for _, id := range ids {
		var acc models.Account
		var raw string
		err := t.tx.QueryRow(ctx,
			"SELECT id, user_id, currency_id, balance::text FROM accounts WHERE id = $1 FOR UPDATE",
			id,
		).Scan(&acc.ID, &acc.UserID, &acc.CurrencyID, &raw)
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("lock acquisition failed: %w", err)
		}
		if acc.Balance, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("balance parse failed: %w", err)
		}
		accounts[acc.ID] = acc
	}
	return accounts, nil
}

// AddToBalance applies a signed delta to an account's balance. Callers must
// hold the row lock via LockAccounts.
func (t *Tx) AddToBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE accounts SET balance = balance + $1::numeric WHERE id = $2",
		delta.String(), accountID,
	)
	if err != nil {
		return fmt.Errorf("balance update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTransferCompleted finalizes a pending transfer as completed.
func (t *Tx) SetTransferCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE transfers SET status = 'completed', updated_at = now() WHERE id = $1 AND status = 'pending'",
		id,
	)
	if err != nil {
		return fmt.Errorf("transfer complete update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
