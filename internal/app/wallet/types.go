package wallet

import (
	"context"

	"raspa-wallet/internal/store"
)

// LedgerStore is the slice of the row store the reconciler needs. The
// conditional complete-if-pending update is the only concurrency primitive
// available; there are no row locks and no cross-row transactions.
type LedgerStore interface {
	FindTransactionByExternalRef(ctx context.Context, externalRef, kind string) (*store.Transaction, error)
	InsertTransaction(ctx context.Context, t store.Transaction) (*store.Transaction, error)
	CompleteTransactionIfPending(ctx context.Context, id string) (*store.Transaction, error)
	SetTransactionStatus(ctx context.Context, id, status string) error
	DeleteTransaction(ctx context.Context, id string) error
}

// AccountStore mutates balances only through store-side atomic deltas.
type AccountStore interface {
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	AddToBalance(ctx context.Context, id string, delta int64) (int64, error)
	SubtractIfEnough(ctx context.Context, id string, amount int64) (int64, error)
}

// EventRecorder receives best-effort audit events; failures never affect the
// money path.
type EventRecorder interface {
	InsertEvent(ctx context.Context, e store.Event) error
}

// DepositResult is identical in shape for the claiming call and for every
// duplicate after it, so clients can retry blindly.
type DepositResult struct {
	Balance int64 `json:"balance"`
	Settled bool  `json:"settled"`
}

type AdjustmentResult struct {
	Balance       int64  `json:"balance"`
	TransactionID string `json:"transaction_id"`
}
