package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/diary"
)

// SQLiteStore keeps the two tables in a single SQLite file.
// The pool is limited to one connection, which serialises every writer.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(ctx context.Context, path string, logger logging.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, logger: logger.With("component", "storage", "backend", "sqlite")}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS journal_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			situation TEXT,
			thoughts TEXT,
			emotions TEXT,
			sensations TEXT,
			actions TEXT,
			desires TEXT
		);

		CREATE TABLE IF NOT EXISTS meal_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			meals_count INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_journal_user_date ON journal_entries(user_id, date);
		CREATE INDEX IF NOT EXISTS idx_meal_user_date ON meal_entries(user_id, date);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return unavailable("migrate sqlite schema", err)
	}

	// Databases created before meal comments existed lack the column.
	has, err := s.hasColumn(ctx, "meal_entries", "comments")
	if err != nil {
		return err
	}
	if !has {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE meal_entries ADD COLUMN comments TEXT`); err != nil {
			return unavailable("add meal_entries.comments", err)
		}
		s.logger.Infow("added missing column", "table", "meal_entries", "column", "comments")
	}
	return nil
}

func (s *SQLiteStore) hasColumn(ctx context.Context, table, column string) (bool, error) {
	op := "inspect " + table

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, unavailable(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, unavailable(op, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, unavailable(op, err)
	}
	return false, nil
}

func (s *SQLiteStore) AppendJournalEntry(ctx context.Context, entry diary.JournalEntry) (int64, error) {
	op := "append journal entry"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries
		(user_id, date, situation, thoughts, emotions, sensations, actions, desires)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, entry.Date.String(), entry.Situation, entry.Thoughts, entry.Emotions,
		entry.Sensations, entry.Actions, entry.Desires)
	if err != nil {
		return 0, unavailable(op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable(op, err)
	}
	return id, nil
}

func (s *SQLiteStore) UpsertMealEntry(ctx context.Context, userID int64, day diary.Day, count int, comment *string) error {
	op := "upsert meal entry"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_entries WHERE user_id = ? AND date = ?`, userID, day.String()); err != nil {
		return unavailable(op, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meal_entries (user_id, date, meals_count, comments)
		VALUES (?, ?, ?, ?)
	`, userID, day.String(), count, nullString(comment)); err != nil {
		return unavailable(op, err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (s *SQLiteStore) QueryEntriesForDate(ctx context.Context, userID int64, day diary.Day) ([]diary.JournalEntry, error) {
	op := "query journal entries"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, COALESCE(situation, ''), COALESCE(thoughts, ''), COALESCE(emotions, ''),
			COALESCE(sensations, ''), COALESCE(actions, ''), COALESCE(desires, '')
		FROM journal_entries
		WHERE user_id = ? AND date = ?
		ORDER BY id
	`, userID, day.String())
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	entries := []diary.JournalEntry{}
	for rows.Next() {
		var (
			entry diary.JournalEntry
			date  string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &date, &entry.Situation, &entry.Thoughts,
			&entry.Emotions, &entry.Sensations, &entry.Actions, &entry.Desires); err != nil {
			return nil, unavailable(op, err)
		}
		if entry.Date, err = diary.ParseDay(date); err != nil {
			return nil, unavailable(op, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return entries, nil
}

func (s *SQLiteStore) QueryMealForDate(ctx context.Context, userID int64, day diary.Day) (*diary.MealEntry, error) {
	op := "query meal entry"

	var (
		meal    diary.MealEntry
		comment sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, COALESCE(meals_count, 0), comments
		FROM meal_entries
		WHERE user_id = ? AND date = ?
		ORDER BY id DESC
		LIMIT 1
	`, userID, day.String()).Scan(&meal.ID, &meal.UserID, &meal.MealsCount, &comment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	meal.Date = day
	if comment.Valid {
		meal.Comment = &comment.String
	}
	return &meal, nil
}

func (s *SQLiteStore) ListKnownUserIDs(ctx context.Context) ([]int64, error) {
	op := "list user ids"

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM journal_entries
		UNION
		SELECT user_id FROM meal_entries
		ORDER BY user_id
	`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return ids, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
