package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"raspa-wallet/internal/store"

	"github.com/rs/zerolog/log"
)

// Service is the single owner of the balance mutation path. Every entrypoint
// that can move money (client deposit confirmation, provider webhook, generic
// transaction create, bet/win settlement) routes through it.
type Service struct {
	ledger   LedgerStore
	accounts AccountStore
	events   EventRecorder
}

func NewService(ledger LedgerStore, accounts AccountStore, events EventRecorder) *Service {
	return &Service{ledger: ledger, accounts: accounts, events: events}
}

// ApplyDeposit credits a confirmed deposit exactly once per externalRef, no
// matter how many callers report it concurrently. Duplicates receive the same
// response shape as the call that actually credited.
func (s *Service) ApplyDeposit(ctx context.Context, userID, externalRef string, amount int64) (*DepositResult, error) {
	if userID == "" || externalRef == "" || amount <= 0 {
		return nil, ErrInvalidArgument
	}

	claim, err := s.claimDeposit(ctx, userID, externalRef, amount, "deposit confirmed")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: claim deposit %s: %v", ErrUnavailable, externalRef, err)
	}

	if claim.outcome != claimWon {
		user, err := s.accounts.GetUserByID(ctx, claim.tx.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: read balance for %s: %v", ErrUnavailable, claim.tx.UserID, err)
		}
		return &DepositResult{Balance: user.Balance, Settled: true}, nil
	}

	balance, err := s.accounts.AddToBalance(ctx, claim.tx.UserID, claim.tx.Amount)
	if err != nil {
		s.compensateDeposit(ctx, claim)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: credit %s for deposit %s: %v", ErrUnavailable, claim.tx.UserID, externalRef, err)
	}

	s.emit(ctx, "deposit_applied", claim.tx.UserID, map[string]any{
		"external_ref": externalRef,
		"amount":       claim.tx.Amount,
	})
	return &DepositResult{Balance: balance, Settled: true}, nil
}

// compensateDeposit undoes a won claim whose balance credit failed: a freshly
// inserted row is deleted, a promoted row reverts to pending. Either way a
// retry with the same externalRef can claim again. If the compensation itself
// fails the ledger and the balance disagree and someone has to look at it.
func (s *Service) compensateDeposit(ctx context.Context, claim *claimResult) {
	var err error
	if claim.fresh {
		err = s.ledger.DeleteTransaction(ctx, claim.tx.ID)
	} else {
		err = s.ledger.SetTransactionStatus(ctx, claim.tx.ID, store.TxStatusPending)
	}
	if err != nil {
		log.Error().
			Err(ErrUnreconciled).
			Str("transaction_id", claim.tx.ID).
			Str("external_ref", claim.tx.ExternalRef).
			Str("user_id", claim.tx.UserID).
			Int64("amount", claim.tx.Amount).
			Msgf("deposit compensation failed: %v", err)
	}
}

// ConfirmDeposit is the webhook path: the provider only knows the external
// reference, so the deposit row created at initiation time supplies the
// account and the amount.
func (s *Service) ConfirmDeposit(ctx context.Context, externalRef string) (*DepositResult, error) {
	if externalRef == "" {
		return nil, ErrInvalidArgument
	}
	tx, err := s.ledger.FindTransactionByExternalRef(ctx, externalRef, store.TxKindDeposit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find deposit %s: %v", ErrUnavailable, externalRef, err)
	}
	return s.ApplyDeposit(ctx, tx.UserID, externalRef, tx.Amount)
}

// CreatePendingDeposit records a client-initiated deposit that is waiting for
// provider confirmation. Repeated creates with the same externalRef return the
// existing row instead of erroring.
func (s *Service) CreatePendingDeposit(ctx context.Context, userID, externalRef string, amount int64, description string) (*store.Transaction, error) {
	if userID == "" || amount <= 0 {
		return nil, ErrInvalidArgument
	}
	if _, err := s.accounts.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read user %s: %v", ErrUnavailable, userID, err)
	}
	tx, err := s.ledger.InsertTransaction(ctx, store.Transaction{
		UserID:      userID,
		Kind:        store.TxKindDeposit,
		Amount:      amount,
		Status:      store.TxStatusPending,
		ExternalRef: externalRef,
		Description: description,
	})
	if err == nil {
		return tx, nil
	}
	if errors.Is(err, store.ErrConflict) && externalRef != "" {
		existing, ferr := s.ledger.FindTransactionByExternalRef(ctx, externalRef, store.TxKindDeposit)
		if ferr != nil {
			return nil, fmt.Errorf("%w: refetch deposit %s: %v", ErrUnavailable, externalRef, ferr)
		}
		return existing, nil
	}
	return nil, fmt.Errorf("%w: create deposit: %v", ErrUnavailable, err)
}

// ApplyAdjustment settles a gameplay balance change. Bets and wins are
// distinct actions, not re-reports of one external event, so they skip the
// idempotency guard. The ledger row still lands before the balance moves,
// and is deleted again if the balance write cannot follow.
func (s *Service) ApplyAdjustment(ctx context.Context, userID, kind string, amount int64, description string) (*AdjustmentResult, error) {
	if userID == "" || amount <= 0 {
		return nil, ErrInvalidArgument
	}
	if kind != store.TxKindBet && kind != store.TxKindWin {
		return nil, ErrInvalidArgument
	}

	tx, err := s.ledger.InsertTransaction(ctx, store.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Status:      store.TxStatusCompleted,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", ErrUnavailable, kind, err)
	}

	var balance int64
	if kind == store.TxKindBet {
		balance, err = s.accounts.SubtractIfEnough(ctx, userID, amount)
	} else {
		balance, err = s.accounts.AddToBalance(ctx, userID, amount)
	}
	if err != nil {
		if derr := s.ledger.DeleteTransaction(ctx, tx.ID); derr != nil {
			log.Error().
				Err(ErrUnreconciled).
				Str("transaction_id", tx.ID).
				Str("user_id", userID).
				Str("kind", kind).
				Int64("amount", amount).
				Msgf("adjustment compensation failed: %v", derr)
		}
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			return nil, ErrInsufficientBalance
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("%w: adjust balance for %s: %v", ErrUnavailable, userID, err)
		}
	}

	s.emit(ctx, "adjustment_applied", userID, map[string]any{
		"kind":   kind,
		"amount": amount,
	})
	return &AdjustmentResult{Balance: balance, TransactionID: tx.ID}, nil
}

// Balance reads the current balance without mutating anything.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrInvalidArgument
	}
	user, err := s.accounts.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: read user %s: %v", ErrUnavailable, userID, err)
	}
	return user.Balance, nil
}

func (s *Service) emit(ctx context.Context, name, uid string, props map[string]any) {
	if s.events == nil {
		return
	}
	raw, err := json.Marshal(props)
	if err != nil {
		raw = nil
	}
	if err := s.events.InsertEvent(ctx, store.Event{
		Name:     name,
		Category: "wallet",
		UID:      uid,
		Props:    raw,
	}); err != nil {
		log.Warn().Str("event", name).Msgf("event insert failed: %v", err)
	}
}
