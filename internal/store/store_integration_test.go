//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/service"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/session"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/store"
)

type ledgerFixture struct {
	pool       *pgxpool.Pool
	store      *store.Store
	transfers  *service.TransferService
	balances   *service.BalanceService
	aliceID    uuid.UUID
	bobID      uuid.UUID
	currencyID uuid.UUID
	aliceUSD   uuid.UUID
	bobUSD     uuid.UUID
}

func setupLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	dsn := os.Getenv("TEST_DB_SOURCE")
	if dsn == "" {
		t.Skip("TEST_DB_SOURCE not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := store.NewWithPool(pool)
	require.NoError(t, s.Migrate(ctx))

	_, err = pool.Exec(ctx, "TRUNCATE sessions, transfers, accounts, currencies, users CASCADE")
	require.NoError(t, err)

	f := &ledgerFixture{
		pool:       pool,
		store:      s,
		transfers:  service.NewTransferService(service.NewLedger(s), uuid.New),
		balances:   service.NewBalanceService(s),
		aliceID:    uuid.New(),
		bobID:      uuid.New(),
		currencyID: uuid.New(),
		aliceUSD:   uuid.New(),
		bobUSD:     uuid.New(),
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO users (id, username, email, password_hash) VALUES ($1, 'alice', 'alice@test', 'x'), ($2, 'bob', 'bob@test', 'x')",
		f.aliceID, f.bobID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		"INSERT INTO currencies (id, code, name) VALUES ($1, 'USD', 'US Dollar')", f.currencyID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO accounts (id, user_id, currency_id, balance)
		 VALUES ($1, $2, $3, 1000.00), ($4, $5, $6, 500.00)`,
		f.aliceUSD, f.aliceID, f.currencyID, f.bobUSD, f.bobID, f.currencyID)
	require.NoError(t, err)
	return f
}

func (f *ledgerFixture) balanceOf(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	balances, err := f.store.UserBalances(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	return balances[0].Amount
}

func TestTransfer_Conservation(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	id, err := f.transfers.Transfer(ctx, f.aliceID, "bob", decimal.RequireFromString("100.00"), "USD")
	require.NoError(t, err)

	assert.True(t, f.balanceOf(t, f.aliceID).Equal(decimal.RequireFromString("900.00")))
	assert.True(t, f.balanceOf(t, f.bobID).Equal(decimal.RequireFromString("600.00")))

	transfer, err := f.store.GetTransfer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TransferCompleted, transfer.Status)
	assert.Empty(t, transfer.ErrorMessage)
}

func TestTransfer_InsufficientFundsLeavesFailedRecord(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	_, err := f.transfers.Transfer(ctx, f.aliceID, "bob", decimal.RequireFromString("2000.00"), "USD")
	require.ErrorIs(t, err, service.ErrInsufficientFunds)

	// No-op on rejection.
	assert.True(t, f.balanceOf(t, f.aliceID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.balanceOf(t, f.bobID).Equal(decimal.RequireFromString("500.00")))

	// The attempt stays auditable as a failed row.
	history, err := f.balances.TransferHistory(ctx, f.aliceID, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransferFailed, history[0].Status)
	assert.Equal(t, service.ErrInsufficientFunds.Error(), history[0].ErrorMessage)
}

func TestTransfer_ExactBalanceLeavesZero(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	_, err := f.transfers.Transfer(ctx, f.aliceID, "bob", decimal.RequireFromString("1000.00"), "USD")
	require.NoError(t, err)
	assert.True(t, f.balanceOf(t, f.aliceID).IsZero())
}

func TestTransfer_UnknownRecipientLeavesNoRecord(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	_, err := f.transfers.Transfer(ctx, f.aliceID, "ghost", decimal.RequireFromString("10.00"), "USD")
	require.ErrorIs(t, err, service.ErrRecipientNotFound)

	var count int
	require.NoError(t, f.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transfers").Scan(&count))
	assert.Zero(t, count)
}

func TestTransfer_UnknownCurrencyLeavesNoRecord(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	_, err := f.transfers.Transfer(ctx, f.aliceID, "bob", decimal.RequireFromString("10.00"), "XYZ")
	require.ErrorIs(t, err, service.ErrInvalidCurrency)

	var count int
	require.NoError(t, f.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transfers").Scan(&count))
	assert.Zero(t, count)
}

func TestTransferHistory_PaginationIsStable(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.transfers.Transfer(ctx, f.aliceID, "bob", decimal.RequireFromString("1.00"), "USD")
		require.NoError(t, err)
	}

	page1, err := f.balances.TransferHistory(ctx, f.aliceID, 1, 3)
	require.NoError(t, err)
	page2, err := f.balances.TransferHistory(ctx, f.aliceID, 2, 3)
	require.NoError(t, err)

	assert.Len(t, page1, 3)
	assert.Len(t, page2, 2)

	seen := map[uuid.UUID]bool{}
	for _, tr := range append(page1, page2...) {
		assert.False(t, seen[tr.ID], "duplicate transfer across pages")
		seen[tr.ID] = true
	}
	all, err := f.balances.TransferHistory(ctx, f.aliceID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, all, append(page1, page2...))
}

func TestSessionStore(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()
	sessions := session.NewStore(f.pool)

	token, err := sessions.Set(ctx, f.aliceID)
	require.NoError(t, err)

	userID, err := sessions.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, f.aliceID, userID)

	require.NoError(t, sessions.Remove(ctx, token))
	_, err = sessions.Verify(ctx, token)
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}
