package store

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) InsertEvent(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO events (id, name, category, uid, props, ip, ua, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Name, e.Category, e.UID, e.Props, e.IP, e.UA, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.Name, err)
	}
	return nil
}

type EventFilter struct {
	Category string
	UID      string
	Name     string
	From     *time.Time
	To       *time.Time
}

func buildEventWhere(f EventFilter) (string, []any) {
	where := "WHERE 1=1"
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.UID != "" {
		args = append(args, f.UID)
		where += fmt.Sprintf(" AND uid = $%d", len(args))
	}
	if f.Name != "" {
		args = append(args, f.Name)
		where += fmt.Sprintf(" AND name = $%d", len(args))
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

func (s *Store) ListEvents(ctx context.Context, f EventFilter, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := buildEventWhere(f)
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT id, name, category, uid, COALESCE(props, 'null'), ip, ua, created_at
		FROM events %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.UID, &e.Props, &e.IP, &e.UA, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CountEvents(ctx context.Context, f EventFilter) (int, error) {
	where, args := buildEventWhere(f)
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM events `+where, args...)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}
