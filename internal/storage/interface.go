package storage

import (
	"context"

	"github.com/dailytracker/backend/internal/model/diary"
)

// EntryStore owns every durable record. It is the only component that mutates persisted data.
type EntryStore interface {
	// AppendJournalEntry inserts a new entry and returns its id.
	AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error)
	// UpsertMealEntry replaces the meal record of (userID, day) inside one transaction.
	UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error
	// QueryEntriesForDate lists journal entries in insertion order.
	QueryEntriesForDate(ctx context.Context, userID int64, day diary.Day) ([]diary.JournalEntry, error)
	// QueryMealForDate returns nil when the day has no meal record.
	QueryMealForDate(ctx context.Context, userID int64, day diary.Day) (*diary.MealEntry, error)
	// ListKnownUserIDs returns every distinct user id seen in either table, ascending.
	ListKnownUserIDs(ctx context.Context) ([]int64, error)
	Close() error
}
