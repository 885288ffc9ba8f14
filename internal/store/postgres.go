package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Store is the ledger's Postgres access layer. It owns a connection pool;
// callers share one Store per process and pass contexts per request.
type Store struct {
	db *pgxpool.Pool
}

// New opens a connection pool against connString and verifies connectivity.
func New(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Store{db: pool}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) Close() {
	s.db.Close()
}

// Begin opens a transaction for the transfer engine's resolve and mutate
// phases.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// SetTransferFailed finalizes a pending transfer as failed, recording the
// error message. It runs as its own unit of work so the audit record
// survives the rollback of the balance mutation that triggered it.
func (s *Store) SetTransferFailed(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE transfers SET status = 'failed', error_message = $1, updated_at = now() WHERE id = $2 AND status = 'pending'",
		message, id,
	)
	if err != nil {
		return fmt.Errorf("transfer fail update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserBalances returns one entry per account the user owns, joined with
// the currency code. Users with no accounts get an empty slice.
func (s *Store) UserBalances(ctx context.Context, userID uuid.UUID) ([]models.Balance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.code, a.balance::text
		 FROM accounts a
		 JOIN currencies c ON a.currency_id = c.id
		 WHERE a.user_id = $1
		 ORDER BY c.code`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	defer rows.Close()

	balances := []models.Balance{}
	for rows.Next() {
		var b models.Balance
		var raw string
		if err := rows.Scan(&b.Currency, &raw); err != nil {
			return nil, fmt.Errorf("balance scan failed: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("balance parse failed: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// TransfersByUser returns transfers where the user owns either side,
// most recent first.
func (s *Store) TransfersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transfer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.from_account, t.to_account, t.amount::text, t.status,
		        COALESCE(t.error_message, ''), t.created_at, t.updated_at
		 FROM transfers t
		 JOIN accounts a1 ON t.from_account = a1.id
		 JOIN accounts a2 ON t.to_account = a2.id
		 WHERE a1.user_id = $1 OR a2.user_id = $1
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	transfers := []models.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// GetTransfer retrieves a single transfer record.
func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, from_account, to_account, amount::text, status,
		        COALESCE(error_message, ''), created_at, updated_at
		 FROM transfers WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("transfer query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	t, err := scanTransfer(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTransfer(rows pgx.Rows) (models.Transfer, error) {
	var t models.Transfer
	var amount string
	if err := rows.Scan(&t.ID, &t.FromAccount, &t.ToAccount, &amount,
		&t.Status, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, fmt.Errorf("transfer scan failed: %w", err)
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("transfer amount parse failed: %w", err)
	}
	return t, nil
}
