package service

import (
	"context"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/store"
)

// storeLedger adapts *store.Store to the Ledger interface; the indirection
// only narrows Begin's return type to the LedgerTx interface.
type storeLedger struct {
	*store.Store
}

// NewLedger exposes a pgx-backed Store as the engine's Ledger.
func NewLedger(s *store.Store) Ledger {
	return storeLedger{Store: s}
}

func (l storeLedger) Begin(ctx context.Context) (LedgerTx, error) {
	return l.Store.Begin(ctx)
}
