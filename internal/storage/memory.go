package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dailytracker/backend/internal/model/diary"
)

// MemoryStore keeps records in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	journal []diary.JournalEntry
	meals   []diary.MealEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("append journal entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	s.journal = append(s.journal, entry)
	return entry.ID, nil
}

func (s *MemoryStore) UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("upsert meal entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.meals[:0]
	for _, m := range s.meals {
		if m.UserID == userID && m.Date == day {
			continue
		}
		kept = append(kept, m)
	}

	s.nextID++
	s.meals = append(kept, diary.MealEntry{
		ID:         s.nextID,
		UserID:     userID,
		Date:       day,
		MealsCount: count,
		Comment:    copyString(comment),
	})
	return nil
}

func (s *MemoryStore) QueryEntriesForDate(ctx context.Context, userID int64, day diary.Day) ([]diary.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query journal entries", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []diary.JournalEntry{}
	for _, e := range s.journal {
		if e.UserID == userID && e.Date == day {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *MemoryStore) QueryMealForDate(ctx context.Context, userID int64, day diary.Day) (*diary.MealEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query meal entry", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.meals {
		if m.UserID == userID && m.Date == day {
			found := m
			found.Comment = copyString(m.Comment)
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListKnownUserIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list user ids", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, e := range s.journal {
		seen[e.UserID] = struct{}{}
	}
	for _, m := range s.meals {
		seen[m.UserID] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
