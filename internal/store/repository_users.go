package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, phone, password_hash, balance, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Balance, &u.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

// CreateUser inserts a new user row; a duplicate email surfaces as ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Balance, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// AddToBalance applies a signed delta atomically on the store side. There is
// deliberately no read-then-write variant: concurrent credits for different
// transactions must not lose updates.
func (s *Store) AddToBalance(ctx context.Context, id string, delta int64) (int64, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING balance`, id, delta)
	var bal int64
	if err := row.Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	return bal, nil
}

// SubtractIfEnough debits atomically, refusing to drive the balance negative.
func (s *Store) SubtractIfEnough(ctx context.Context, id string, amount int64) (int64, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = now()
		WHERE id = $1 AND balance >= $2
		RETURNING balance`, id, amount)
	var bal int64
	err := row.Scan(&bal)
	if err == nil {
		return bal, nil
	}
	if mapNotFound(err) != ErrNotFound {
		return 0, err
	}
	// No row matched: either the user is unknown or the funds are short.
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return 0, err
	}
	return 0, ErrInsufficientBalance
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Balance, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
