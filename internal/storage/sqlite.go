// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"calorie-log/internal/models"
	perr "calorie-log/internal/platform/errors"
)

const totalKey = "total"

type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
	loc *time.Location
}

// Option tweaks a SQLiteStorage
type Option func(*SQLiteStorage)

// WithClock replaces time.Now, used to pin "today" in tests
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStorage) { s.now = now }
}

// WithLocation sets the time zone the day boundary is computed in (default UTC)
func WithLocation(loc *time.Location) Option {
	return func(s *SQLiteStorage) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "failed to open database")
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db, now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(storage)
	}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "failed to initialize schema")
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS daily_totals (
        date TEXT PRIMARY KEY,
        total_calories INTEGER NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS current_day (
        key TEXT PRIMARY KEY,
        value INTEGER NOT NULL
    );

    INSERT OR IGNORE INTO current_day (key, value) VALUES ('total', 0);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Today returns the calendar date used as the history key
func (s *SQLiteStorage) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// GetTotal returns the running total for the open day
func (s *SQLiteStorage) GetTotal(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM current_day WHERE key = ?`, totalKey).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "failed to read running total")
	}
	return total, nil
}

// SetTotal overwrites the running total
func (s *SQLiteStorage) SetTotal(ctx context.Context, total int) error {
	if total < 0 {
		return perr.Validationf("running total cannot be negative: %d", total)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO current_day (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, totalKey, total)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "failed to save running total")
	}
	return nil
}

// CloseDay records finalTotal for today and resets the running total in one transaction
func (s *SQLiteStorage) CloseDay(ctx context.Context, finalTotal int) (string, error) {
	if finalTotal < 0 {
		return "", perr.Validationf("day total cannot be negative: %d", finalTotal)
	}
	today := s.Today()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeDB, "failed to start transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO daily_totals (date, total_calories) VALUES (?, ?)
         ON CONFLICT(date) DO UPDATE SET total_calories = excluded.total_calories`, today, finalTotal)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeDB, "failed to save day total")
	}

	if _, err = tx.ExecContext(ctx, `UPDATE current_day SET value = 0 WHERE key = ?`, totalKey); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeDB, "failed to reset running total")
	}

	if err := tx.Commit(); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeDB, "failed to commit day")
	}
	return today, nil
}

// GetHistory returns every closed day, oldest first
func (s *SQLiteStorage) GetHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, total_calories FROM daily_totals ORDER BY date ASC`)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "failed to query history")
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.Date, &e.TotalCalories); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "failed to scan history row")
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "failed to read history")
	}

	return history, nil
}
