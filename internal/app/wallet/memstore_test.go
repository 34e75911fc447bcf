package wallet

import (
	"context"
	"errors"
	"sync"

	"raspa-wallet/internal/store"
)

// memLedger mirrors the Postgres contract: uniqueness on (external_ref, kind)
// and a conditional complete-if-pending update, both under a single mutex so
// each call is atomic but no two calls are.
type memLedger struct {
	mu      sync.Mutex
	rows    map[string]*store.Transaction
	inserts int

	failInsert   error
	failComplete error
	failDelete   error
	failRevert   error
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[string]*store.Transaction{}}
}

func (m *memLedger) FindTransactionByExternalRef(_ context.Context, externalRef, kind string) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.ExternalRef == externalRef && t.Kind == kind && externalRef != "" {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLedger) InsertTransaction(_ context.Context, t store.Transaction) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return nil, m.failInsert
	}
	if t.ExternalRef != "" {
		for _, existing := range m.rows {
			if existing.ExternalRef == t.ExternalRef && existing.Kind == t.Kind {
				return nil, store.ErrConflict
			}
		}
	}
	if t.ID == "" {
		t.ID = store.NewID()
	}
	m.rows[t.ID] = &t
	m.inserts++
	cp := t
	return &cp, nil
}

func (m *memLedger) CompleteTransactionIfPending(_ context.Context, id string) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failComplete != nil {
		return nil, m.failComplete
	}
	t, ok := m.rows[id]
	if !ok || t.Status == store.TxStatusCompleted {
		return nil, store.ErrNotFound
	}
	t.Status = store.TxStatusCompleted
	cp := *t
	return &cp, nil
}

func (m *memLedger) SetTransactionStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRevert != nil {
		return m.failRevert
	}
	t, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *memLedger) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memLedger) completedByRef(externalRef, kind string) []store.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Transaction{}
	for _, t := range m.rows {
		if t.ExternalRef == externalRef && t.Kind == kind && t.Status == store.TxStatusCompleted {
			out = append(out, *t)
		}
	}
	return out
}

func (m *memLedger) completedNet() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.rows {
		if t.Status != store.TxStatusCompleted {
			continue
		}
		switch t.Kind {
		case store.TxKindDeposit, store.TxKindWin:
			sum += t.Amount
		case store.TxKindBet, store.TxKindWithdraw:
			sum -= t.Amount
		}
	}
	return sum
}

type memAccounts struct {
	mu       sync.Mutex
	balances map[string]int64
	credits  int

	// failNextAdds makes the next N AddToBalance calls fail transiently.
	failNextAdds int
}

func newMemAccounts(balances map[string]int64) *memAccounts {
	m := &memAccounts{balances: map[string]int64{}}
	for id, bal := range balances {
		m.balances[id] = bal
	}
	return m
}

func (m *memAccounts) GetUserByID(_ context.Context, id string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.User{ID: id, Balance: bal}, nil
}

func (m *memAccounts) AddToBalance(_ context.Context, id string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextAdds > 0 {
		m.failNextAdds--
		return 0, errors.New("connection reset")
	}
	bal, ok := m.balances[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	bal += delta
	m.balances[id] = bal
	m.credits++
	return bal, nil
}

func (m *memAccounts) SubtractIfEnough(_ context.Context, id string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if bal < amount {
		return 0, store.ErrInsufficientBalance
	}
	bal -= amount
	m.balances[id] = bal
	return bal, nil
}

func (m *memAccounts) balance(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id]
}
