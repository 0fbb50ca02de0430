package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saikiran76/SwipeAI/constants"
)

// ErrRunNotFound is returned when no journal row matches.
var ErrRunNotFound = errors.New("extraction run not found")

// Run is one row of the extraction journal. It records what happened to a
// file, never the extracted invoice data itself.
type Run struct {
	ID           uuid.UUID
	ContentHash  string
	SourcePath   string
	Format       string
	Method       string
	Status       constants.RunStatus
	Invoices     int
	Products     int
	Customers    int
	ErrorCode    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Counts summarizes a successful extraction.
type Counts struct {
	Invoices  int
	Products  int
	Customers int
}

type JournalRepository interface {
	EnsureSchema(ctx context.Context) error
	Start(ctx context.Context, hash, path, format, method string) (*Run, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, method string, counts Counts) error
	FinishFailure(ctx context.Context, id uuid.UUID, code, message string) error
	LatestSucceeded(ctx context.Context, hash string) (*Run, error)
}

type journalRepo struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
	now     func() time.Time
}

func NewJournalRepository(db *sql.DB, dialect Dialect, log *slog.Logger) JournalRepository {
	if log == nil {
		log = slog.Default()
	}
	return &journalRepo{db: db, dialect: dialect, log: log, now: time.Now}
}

const maxErrorMessage = 1000

func (r *journalRepo) EnsureSchema(ctx context.Context) error {
	ts := "TIMESTAMP"
	if r.dialect == Postgres {
		ts = "TIMESTAMPTZ"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS extraction_runs (
	id TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	source_path TEXT NOT NULL,
	format TEXT NOT NULL,
	method TEXT NOT NULL,
	status TEXT NOT NULL,
	invoices INTEGER NOT NULL DEFAULT 0,
	products INTEGER NOT NULL DEFAULT 0,
	customers INTEGER NOT NULL DEFAULT 0,
	error_code TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	started_at ` + ts + ` NOT NULL,
	finished_at ` + ts + `
)`,
		`CREATE INDEX IF NOT EXISTS idx_extraction_runs_hash ON extraction_runs(content_hash, started_at)`,
	}
	for _, q := range ddl {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("execute schema ddl: %w", err)
		}
	}
	return nil
}

func (r *journalRepo) Start(ctx context.Context, hash, path, format, method string) (*Run, error) {
	run := &Run{
		ID:          uuid.New(),
		ContentHash: hash,
		SourcePath:  path,
		Format:      format,
		Method:      method,
		Status:      constants.RunStatusRunning,
		StartedAt:   r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.rebind(`
INSERT INTO extraction_runs (id, content_hash, source_path, format, method, status, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), hash, path, format, method, string(run.Status), run.StartedAt,
	)
	if err != nil {
		r.log.Error("journal.start.failed", "path", path, "error", err)
		return nil, fmt.Errorf("insert run: %w", err)
	}
	r.log.Debug("journal.start", "run_id", run.ID, "path", path, "format", format)
	return run, nil
}

func (r *journalRepo) FinishSuccess(ctx context.Context, id uuid.UUID, method string, counts Counts) error {
	return r.finish(ctx, r.rebind(`
UPDATE extraction_runs
SET status = ?, method = ?, invoices = ?, products = ?, customers = ?, finished_at = ?
WHERE id = ?`),
		string(constants.RunStatusSucceeded), method, counts.Invoices, counts.Products, counts.Customers, r.now().UTC(), id.String(),
	)
}

func (r *journalRepo) FinishFailure(ctx context.Context, id uuid.UUID, code, message string) error {
	if len(message) > maxErrorMessage {
		message = message[:maxErrorMessage]
	}
	return r.finish(ctx, r.rebind(`
UPDATE extraction_runs
SET status = ?, error_code = ?, error_message = ?, finished_at = ?
WHERE id = ?`),
		string(constants.RunStatusFailed), code, message, r.now().UTC(), id.String(),
	)
}

func (r *journalRepo) finish(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// LatestSucceeded returns the newest successful run for a content hash.
func (r *journalRepo) LatestSucceeded(ctx context.Context, hash string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
SELECT id, content_hash, source_path, format, method, status, invoices, products, customers,
	error_code, error_message, started_at, finished_at
FROM extraction_runs
WHERE content_hash = ? AND status = ?
ORDER BY started_at DESC
LIMIT 1`), hash, string(constants.RunStatusSucceeded))

	var (
		run      Run
		id       string
		status   string
		finished sql.NullTime
	)
	err := row.Scan(&id, &run.ContentHash, &run.SourcePath, &run.Format, &run.Method, &status,
		&run.Invoices, &run.Products, &run.Customers, &run.ErrorCode, &run.ErrorMessage, &run.StartedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("select run: %w", err)
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	run.Status = constants.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// rebind rewrites ? placeholders to $N for Postgres.
func (r *journalRepo) rebind(q string) string {
	if r.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
