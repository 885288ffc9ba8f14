package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/models"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// LedgerReader is the read-only storage surface of the balance reader.
type LedgerReader interface {
	UserBalances(ctx context.Context, userID uuid.UUID) ([]models.Balance, error)
	TransfersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transfer, error)
}

// BalanceService aggregates a user's balances and transfer history. Pure
// read paths; it never mutates the ledger.
type BalanceService struct {
	reader LedgerReader
}

func NewBalanceService(reader LedgerReader) *BalanceService {
	return &BalanceService{reader: reader}
}

// UserBalances returns one (currency, balance) entry per account the user
// owns. Users without accounts get an empty list.
func (s *BalanceService) UserBalances(ctx context.Context, userID uuid.UUID) ([]models.Balance, error) {
	return s.reader.UserBalances(ctx, userID)
}

// TransferHistory returns transfers involving any of the user's accounts,
// most recent first. Pages are 1-based; out-of-range page or pageSize
// values fall back to defaults, and pageSize is capped.
func (s *BalanceService) TransferHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Transfer, error) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	offset := (page - 1) * pageSize
	return s.reader.TransfersByUser(ctx, userID, pageSize, offset)
}
