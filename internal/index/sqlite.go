package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mediadex/internal/records"
)

// SQLiteStore keeps every partition in one records table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// OpenSQLite opens or creates the database at path and applies migrations.
// The special path ":memory:" keeps the database in memory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := applyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) selectRecords(ctx context.Context, query string, args ...any) ([]*records.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*records.Record
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := records.Unmarshal(id, []byte(document))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Query(ctx context.Context, kind records.Kind, dirname, filename string) ([]*records.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	return s.selectRecords(ctx,
		`SELECT id, document FROM records WHERE partition = ? AND filename = ? AND dirname = ? ORDER BY id`,
		kind.Partition(), filename, dirname)
}

func (s *SQLiteStore) FindByFilename(ctx context.Context, kind records.Kind, filename string) ([]*records.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	return s.selectRecords(ctx,
		`SELECT id, document FROM records WHERE partition = ? AND filename = ? ORDER BY dirname, id`,
		kind.Partition(), filename)
}

func (s *SQLiteStore) Save(ctx context.Context, rec *records.Record) error {
	if rec == nil {
		return errors.New("save: record is nil")
	}
	data, err := records.Marshal(rec)
	if err != nil {
		return err
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = s.exec(ctx,
		`INSERT INTO records (id, partition, dirname, filename, title, document, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             partition = excluded.partition, dirname = excluded.dirname, filename = excluded.filename,
             title = excluded.title, document = excluded.document, updated_at = excluded.updated_at`,
		id, rec.Kind.Partition(), rec.Dirname, rec.Filename, nullableString(rec.Title), string(data),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Path(), err)
	}
	rec.ID = id
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, kind records.Kind, filter Filter) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	if filter.Filename == "" {
		return 0, errors.New("delete: filename is required")
	}
	query := `DELETE FROM records WHERE partition = ? AND filename = ?`
	args := []any{kind.Partition(), filter.Filename}
	if filter.Dirname != "" {
		query += ` AND dirname = ?`
		args = append(args, filter.Dirname)
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", filter.Filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) DistinctFilenames(ctx context.Context, kind records.Kind, limit int) ([]string, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT filename FROM records WHERE partition = ? ORDER BY filename LIMIT ?`,
		kind.Partition(), limit)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Search(ctx context.Context, kind records.Kind, text string, limit int) ([]*records.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if strings.TrimSpace(text) == "" {
		return s.selectRecords(ctx,
			`SELECT id, document FROM records WHERE partition = ? ORDER BY dirname, filename LIMIT ?`,
			kind.Partition(), limit)
	}
	pattern := "%" + escapeLike(strings.TrimSpace(text)) + "%"
	return s.selectRecords(ctx,
		`SELECT id, document FROM records
         WHERE partition = ? AND (title LIKE ? ESCAPE '\' OR filename LIKE ? ESCAPE '\' OR document LIKE ? ESCAPE '\')
         ORDER BY dirname, filename LIMIT ?`,
		kind.Partition(), pattern, pattern, pattern, limit)
}

func (s *SQLiteStore) Count(ctx context.Context, kind records.Kind) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM records WHERE partition = ?`, kind.Partition()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
