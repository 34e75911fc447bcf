package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"raspa-wallet/internal/store"
)

var ErrInvalidRequest = errors.New("invalid_request")

type Store interface {
	InsertEvent(ctx context.Context, e store.Event) error
	ListEvents(ctx context.Context, f store.EventFilter, limit, offset int) ([]store.Event, error)
	CountEvents(ctx context.Context, f store.EventFilter) (int, error)
}

type Service struct {
	store Store
}

func NewService(st Store) *Service {
	return &Service{store: st}
}

func isAllowedCategory(v string) bool {
	switch v {
	case "auth", "wallet", "game", "admin", "system", "debug":
		return true
	default:
		return false
	}
}

type RecordInput struct {
	Name     string
	Category string
	UID      string
	Props    json.RawMessage
	IP       string
	UA       string
}

func (s *Service) Record(ctx context.Context, in RecordInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrInvalidRequest
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = "system"
	}
	if !isAllowedCategory(category) {
		return ErrInvalidRequest
	}
	var props json.RawMessage
	if len(in.Props) > 0 && json.Valid(in.Props) {
		props = in.Props
	}
	return s.store.InsertEvent(ctx, store.Event{
		Name:     in.Name,
		Category: category,
		UID:      strings.TrimSpace(in.UID),
		Props:    props,
		IP:       in.IP,
		UA:       in.UA,
	})
}

type ListResult struct {
	Items []store.Event
	Total int
}

func (s *Service) List(ctx context.Context, f store.EventFilter, limit, offset int) (*ListResult, error) {
	if f.Category != "" && f.Category != "all" && !isAllowedCategory(f.Category) {
		return nil, ErrInvalidRequest
	}
	if f.Category == "all" {
		f.Category = ""
	}
	total, err := s.store.CountEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListEvents(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total}, nil
}

type SummaryResult struct {
	Counts map[string]int
	From   time.Time
	To     time.Time
}

// Summary counts events per category, defaulting to the last 24 hours. A
// category whose count query fails reports zero rather than failing the
// whole summary.
func (s *Service) Summary(ctx context.Context, from, to *time.Time) (*SummaryResult, error) {
	now := time.Now().UTC()
	end := now
	if to != nil {
		end = *to
	}
	start := end.Add(-24 * time.Hour)
	if from != nil {
		start = *from
	}

	counts := map[string]int{}
	for _, cat := range []string{"auth", "wallet", "game", "admin", "system", "debug"} {
		c, err := s.store.CountEvents(ctx, store.EventFilter{Category: cat, From: &start, To: &end})
		if err != nil {
			c = 0
		}
		counts[cat] = c
	}
	return &SummaryResult{Counts: counts, From: start, To: end}, nil
}
