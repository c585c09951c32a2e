// Package sqlite keeps a durable log of idle sessions in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/ghost-idler/internal/adapters/history/sqlite/migrations"
	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	_ "modernc.org/sqlite"
)

const dirMode = 0o700

type Store struct {
	sqlDB *sql.DB
}

var _ ports.HistoryRepository = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the history database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), dirMode); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) RecordStart(ctx context.Context, appID domain.AppID, name string, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (app_id, game_name, start_time, status) VALUES (?, ?, ?, ?)`,
		int64(appID),
		name,
		toMillis(at),
		string(domain.HistoryActive),
	)
	if err != nil {
		return 0, fmt.Errorf("insert session history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read session history id: %w", err)
	}
	return id, nil
}

func (s *Store) RecordStop(ctx context.Context, id int64, at time.Time, elapsed time.Duration, status domain.HistoryStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if status == domain.HistoryActive || !status.Valid() {
		return fmt.Errorf("invalid final status %q", status)
	}
	if elapsed < 0 {
		elapsed = 0
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET end_time = ?, duration_ms = ?, status = ? WHERE id = ? AND status = ?`,
		toMillis(at),
		elapsed.Milliseconds(),
		string(status),
		id,
		string(domain.HistoryActive),
	)
	if err != nil {
		return fmt.Errorf("update session history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session history: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: history row %d", domain.ErrSessionNotFound, id)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	return s.query(ctx,
		`SELECT id, app_id, game_name, start_time, end_time, duration_ms, status
		   FROM sessions
		  ORDER BY start_time DESC, id DESC
		  LIMIT ?`,
		normalizeLimit(limit),
	)
}

func (s *Store) ByApp(ctx context.Context, appID domain.AppID, limit int) ([]domain.HistoryRecord, error) {
	return s.query(ctx,
		`SELECT id, app_id, game_name, start_time, end_time, duration_ms, status
		   FROM sessions
		  WHERE app_id = ?
		  ORDER BY start_time DESC, id DESC
		  LIMIT ?`,
		int64(appID),
		normalizeLimit(limit),
	)
}

// TotalIdle sums the recorded duration of every finished session.
func (s *Store) TotalIdle(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var total int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duration_ms), 0) FROM sessions WHERE status != ?`,
		string(domain.HistoryActive),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum session history: %w", err)
	}
	return time.Duration(total) * time.Millisecond, nil
}

// CloseDangling completes rows left active by a host that did not shut down
// cleanly, charging them the time up to at.
func (s *Store) CloseDangling(ctx context.Context, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions
		    SET end_time = ?, duration_ms = MAX(? - start_time, 0), status = ?
		  WHERE status = ?`,
		toMillis(at),
		toMillis(at),
		string(domain.HistoryCompleted),
		string(domain.HistoryActive),
	)
	if err != nil {
		return 0, fmt.Errorf("close dangling history: %w", err)
	}
	return result.RowsAffected()
}

// Cleanup deletes finished sessions that started before olderThan.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM sessions WHERE start_time < ? AND status != ?`,
		toMillis(olderThan),
		string(domain.HistoryActive),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup session history: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.HistoryRecord
	for rows.Next() {
		var (
			record     domain.HistoryRecord
			appID      int64
			startedAt  int64
			endedAt    sql.NullInt64
			durationMS int64
			status     string
		)
		if err := rows.Scan(&record.ID, &appID, &record.GameName, &startedAt, &endedAt, &durationMS, &status); err != nil {
			return nil, fmt.Errorf("scan session history: %w", err)
		}
		record.AppID = domain.AppID(appID)
		record.StartedAt = fromMillis(startedAt)
		if endedAt.Valid {
			record.EndedAt = fromMillis(endedAt.Int64)
		}
		record.Duration = time.Duration(durationMS) * time.Millisecond
		record.Status = domain.HistoryStatus(status)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}

	return records, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
