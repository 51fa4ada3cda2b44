package storage

import (
	"context"

	"github.com/dailytracker/backend/internal/model/diary"
)

func (s *MemoryStore) MealRows(userID int64, day diary.Day) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.meals {
		if m.UserID == userID && m.Date == day {
			n++
		}
	}
	return n
}

func (s *SQLiteStore) MealRows(ctx context.Context, userID int64, day diary.Day) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meal_entries WHERE user_id = ? AND date = ?`,
		userID, day.String()).Scan(&n)
	return n, err
}

func (s *PostgresStore) MealRows(ctx context.Context, userID int64, day diary.Day) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meal_entries WHERE user_id = $1 AND date = $2`,
		userID, day.String()).Scan(&n)
	return n, err
}
