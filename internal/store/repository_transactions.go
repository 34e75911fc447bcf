package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, user_id, kind, amount, status, COALESCE(external_ref, ''), description, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.Status, &t.ExternalRef, &t.Description, &t.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

// InsertTransaction writes a new ledger row. A violation of the
// (external_ref, kind) uniqueness index surfaces as ErrConflict.
func (s *Store) InsertTransaction(ctx context.Context, t Transaction) (*Transaction, error) {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, kind, amount, status, external_ref, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		t.ID, t.UserID, t.Kind, t.Amount, t.Status, t.ExternalRef, t.Description, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return &t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *Store) FindTransactionByExternalRef(ctx context.Context, externalRef, kind string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE external_ref = $1 AND kind = $2`, externalRef, kind)
	return scanTransaction(row)
}

// CompleteTransactionIfPending flips the row to completed only when no other
// caller has done so already. ErrNotFound means the row is missing or was
// already completed; this single conditional update is the claim primitive
// the deposit guard is built on.
func (s *Store) CompleteTransactionIfPending(ctx context.Context, id string) (*Transaction, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE transactions SET status = $2
		WHERE id = $1 AND status <> $2
		RETURNING `+transactionColumns,
		id, TxStatusCompleted)
	return scanTransaction(row)
}

func (s *Store) SetTransactionStatus(ctx context.Context, id, status string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set transaction %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type TransactionFilter struct {
	UserID string
	Kind   string
	From   *time.Time
	To     *time.Time
}

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	where := "WHERE 1=1"
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	return where, args
}

func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter, ascending bool, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := buildTransactionWhere(f)
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		transactionColumns, where, order, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.Status, &t.ExternalRef, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTransactions(ctx context.Context, f TransactionFilter) (int, error) {
	where, args := buildTransactionWhere(f)
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM transactions `+where, args...)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}
