package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	"liquorum/contexts/insolvency-core/audit-trail-service/ports"
)

// Store is the in-memory activity log. Entries only ever get appended;
// History serves them newest first.
type Store struct {
	mu      sync.RWMutex
	entries []entities.Entry
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Append(_ context.Context, entry entities.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) History(_ context.Context, query ports.HistoryQuery) (ports.HistoryPage, error) {
	s.mu.RLock()
	matched := make([]entities.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if !matches(entry, query) {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if query.Before != nil {
		cut := 0
		for cut < len(matched) && !afterCursor(matched[cut], *query.Before, query.BeforeID) {
			cut++
		}
		matched = matched[cut:]
	}

	limit := query.Limit
	if limit <= 0 {
		limit = len(matched)
	}
	page := ports.HistoryPage{}
	if len(matched) > limit {
		page.Entries = append([]entities.Entry(nil), matched[:limit]...)
		page.HasMore = true
	} else {
		page.Entries = append([]entities.Entry(nil), matched...)
	}
	return page, nil
}

func matches(entry entities.Entry, query ports.HistoryQuery) bool {
	if query.CaseID != "" && entry.CaseID != query.CaseID {
		return false
	}
	if query.EntityType != "" && entry.EntityType != query.EntityType {
		return false
	}
	if query.EntityID != "" && entry.EntityID != query.EntityID {
		return false
	}
	if query.Action != "" && !strings.EqualFold(entry.Action, query.Action) {
		return false
	}
	if query.Since != nil && entry.CreatedAt.Before(*query.Since) {
		return false
	}
	return true
}

// afterCursor reports whether entry sorts strictly after the cursor
// position in (created_at DESC, id DESC) order.
func afterCursor(entry entities.Entry, before time.Time, beforeID string) bool {
	if entry.CreatedAt.Before(before) {
		return true
	}
	return entry.CreatedAt.Equal(before) && entry.ID < beforeID
}
