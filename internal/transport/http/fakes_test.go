package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"raspa-wallet/internal/store"
)

// fakeLedger and fakeAccounts back the wallet service in handler tests with
// the same semantics the Postgres store provides: (external_ref, kind)
// uniqueness, conditional completion, atomic balance deltas.
type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]*store.Transaction
	seq  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[string]*store.Transaction{}}
}

func (l *fakeLedger) FindTransactionByExternalRef(_ context.Context, ref, kind string) (*store.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.rows {
		if t.ExternalRef == ref && t.Kind == kind {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (l *fakeLedger) InsertTransaction(_ context.Context, t store.Transaction) (*store.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.ExternalRef != "" {
		for _, row := range l.rows {
			if row.ExternalRef == t.ExternalRef && row.Kind == t.Kind {
				return nil, store.ErrConflict
			}
		}
	}
	l.seq++
	t.ID = fmt.Sprintf("tx_%03d", l.seq)
	cp := t
	l.rows[t.ID] = &cp
	out := t
	return &out, nil
}

func (l *fakeLedger) CompleteTransactionIfPending(_ context.Context, id string) (*store.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	if !ok || row.Status == store.TxStatusCompleted {
		return nil, store.ErrNotFound
	}
	row.Status = store.TxStatusCompleted
	cp := *row
	return &cp, nil
}

func (l *fakeLedger) SetTransactionStatus(_ context.Context, id, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Status = status
	return nil
}

func (l *fakeLedger) DeleteTransaction(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(l.rows, id)
	return nil
}

func (l *fakeLedger) completedCount(ref string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.rows {
		if t.ExternalRef == ref && t.Status == store.TxStatusCompleted {
			n++
		}
	}
	return n
}

type fakeAccounts struct {
	mu       sync.Mutex
	balances map[string]int64
	credits  int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{balances: map[string]int64{}}
}

func (a *fakeAccounts) GetUserByID(_ context.Context, id string) (*store.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bal, ok := a.balances[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.User{ID: id, Balance: bal}, nil
}

func (a *fakeAccounts) AddToBalance(_ context.Context, id string, delta int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.balances[id]; !ok {
		return 0, store.ErrNotFound
	}
	a.balances[id] += delta
	a.credits++
	return a.balances[id], nil
}

func (a *fakeAccounts) SubtractIfEnough(_ context.Context, id string, amount int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bal, ok := a.balances[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if bal < amount {
		return 0, store.ErrInsufficientBalance
	}
	a.balances[id] -= amount
	return a.balances[id], nil
}

type nopEvents struct{}

func (nopEvents) InsertEvent(context.Context, store.Event) error { return nil }

// withUser injects an authenticated user the way AuthMiddleware would.
func withUser(uid string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userContextKey{}, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
