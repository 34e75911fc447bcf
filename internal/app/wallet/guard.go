package wallet

import (
	"context"
	"errors"

	"raspa-wallet/internal/store"
)

type claimOutcome int

const (
	// claimWon: this call transitioned the ledger row to completed and owns
	// the balance credit.
	claimWon claimOutcome = iota
	// claimAlreadySettled: a completed row existed before this call started.
	claimAlreadySettled
	// claimLost: another caller completed the row between our read and write.
	claimLost
)

type claimResult struct {
	outcome claimOutcome
	tx      *store.Transaction
	// fresh is set when the claim inserted the row rather than promoting a
	// pending one; compensation then deletes instead of reverting.
	fresh bool
}

// claimDeposit decides, using only single-row conditional writes, whether this
// call is the one that settles the deposit identified by externalRef. It is
// safe under arbitrary retries and concurrent duplicate deliveries as long as
// the store enforces uniqueness on (external_ref, kind).
func (s *Service) claimDeposit(ctx context.Context, userID, externalRef string, amount int64, description string) (*claimResult, error) {
	existing, err := s.ledger.FindTransactionByExternalRef(ctx, externalRef, store.TxKindDeposit)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Status == store.TxStatusCompleted {
			return &claimResult{outcome: claimAlreadySettled, tx: existing}, nil
		}
		updated, err := s.ledger.CompleteTransactionIfPending(ctx, existing.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &claimResult{outcome: claimLost, tx: existing}, nil
			}
			return nil, err
		}
		return &claimResult{outcome: claimWon, tx: updated}, nil
	}

	inserted, err := s.ledger.InsertTransaction(ctx, store.Transaction{
		UserID:      userID,
		Kind:        store.TxKindDeposit,
		Amount:      amount,
		Status:      store.TxStatusCompleted,
		ExternalRef: externalRef,
		Description: description,
	})
	if err == nil {
		return &claimResult{outcome: claimWon, tx: inserted, fresh: true}, nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return nil, err
	}

	// Another caller inserted between our read and write; their row decides.
	settled, err := s.ledger.FindTransactionByExternalRef(ctx, externalRef, store.TxKindDeposit)
	if err != nil {
		return nil, err
	}
	if settled.Status == store.TxStatusCompleted {
		return &claimResult{outcome: claimLost, tx: settled}, nil
	}
	// The racing insert was a pending row (a client-initiated create); we can
	// still be the one to promote it.
	updated, err := s.ledger.CompleteTransactionIfPending(ctx, settled.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &claimResult{outcome: claimLost, tx: settled}, nil
		}
		return nil, err
	}
	return &claimResult{outcome: claimWon, tx: updated}, nil
}
