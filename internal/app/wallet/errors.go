package wallet

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid_argument")
	ErrNotFound            = errors.New("not_found")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrUnavailable         = errors.New("unavailable")

	// ErrUnreconciled marks the one state the reconciler cannot self-heal:
	// the ledger claim succeeded, the balance write failed, and the
	// compensating revert failed too. It is always logged before being
	// returned and requires manual reconciliation.
	ErrUnreconciled = errors.New("unreconciled")
)
