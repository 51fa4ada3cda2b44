package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/diary"
)

// PostgresStore keeps the same two-table layout in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, unavailable("connect postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping postgres", err)
	}

	store := &PostgresStore{pool: pool, logger: logger.With("component", "storage", "backend", "postgres")}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		date TEXT NOT NULL,
		situation TEXT,
		thoughts TEXT,
		emotions TEXT,
		sensations TEXT,
		actions TEXT,
		desires TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS meal_entries (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		date TEXT NOT NULL,
		meals_count INTEGER
	)`,
	`ALTER TABLE meal_entries ADD COLUMN IF NOT EXISTS comments TEXT`,
	`CREATE INDEX IF NOT EXISTS idx_journal_user_date ON journal_entries(user_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_user_date ON meal_entries(user_id, date)`,
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return unavailable("migrate postgres schema", err)
		}
	}
	return nil
}

func (s *PostgresStore) AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error) {
	op := "append journal entry"

	sqlQuery := `
	INSERT INTO journal_entries
	(user_id, date, situation, thoughts, emotions, sensations, actions, desires)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, sqlQuery,
		entry.UserID,
		entry.Date.String(),
		entry.Situation,
		entry.Thoughts,
		entry.Emotions,
		entry.Sensations,
		entry.Actions,
		entry.Desires,
	).Scan(&id)
	if err != nil {
		return 0, unavailable(op, err)
	}
	return id, nil
}

func (s *PostgresStore) UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error {
	op := "upsert meal entry"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback(ctx)

	// Held until commit; concurrent upserts of the same user queue here instead of both inserting.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return unavailable(op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM meal_entries WHERE user_id = $1 AND date = $2`, userID, day.String()); err != nil {
		return unavailable(op, err)
	}

	if _, err := tx.Exec(ctx, `
	INSERT INTO meal_entries (user_id, date, meals_count, comments)
	VALUES ($1, $2, $3, $4)
	`, userID, day.String(), count, comment); err != nil {
		return unavailable(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (s *PostgresStore) QueryEntriesForDate(ctx context.Context, userID int64, day diary.Day) ([]diary.JournalEntry, error) {
	op := "query journal entries"

	rows, err := s.pool.Query(ctx, `
	SELECT id, user_id, COALESCE(situation, ''), COALESCE(thoughts, ''), COALESCE(emotions, ''),
		COALESCE(sensations, ''), COALESCE(actions, ''), COALESCE(desires, '')
	FROM journal_entries
	WHERE user_id = $1 AND date = $2
	ORDER BY id
	`, userID, day.String())
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	entries := []diary.JournalEntry{}
	for rows.Next() {
		entry := diary.JournalEntry{Date: day}
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Situation,
			&entry.Thoughts,
			&entry.Emotions,
			&entry.Sensations,
			&entry.Actions,
			&entry.Desires,
		); err != nil {
			return nil, unavailable(op, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return entries, nil
}

func (s *PostgresStore) QueryMealForDate(ctx context.Context, userID int64, day diary.Day) (*diary.MealEntry, error) {
	op := "query meal entry"

	meal := diary.MealEntry{Date: day}
	err := s.pool.QueryRow(ctx, `
	SELECT id, user_id, COALESCE(meals_count, 0), comments
	FROM meal_entries
	WHERE user_id = $1 AND date = $2
	ORDER BY id DESC
	LIMIT 1
	`, userID, day.String()).Scan(&meal.ID, &meal.UserID, &meal.MealsCount, &meal.Comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return &meal, nil
}

func (s *PostgresStore) ListKnownUserIDs(ctx context.Context) ([]int64, error) {
	op := "list user ids"

	rows, err := s.pool.Query(ctx, `
	SELECT user_id FROM journal_entries
	UNION
	SELECT user_id FROM meal_entries
	ORDER BY user_id
	`)
	if err != nil {
		return nil, unavailable(op, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, unavailable(op, err)
	}
	return ids, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
