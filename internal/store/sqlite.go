package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL,
	options    TEXT NOT NULL,
	result     TEXT,
	study_area BLOB,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	prepareRun(run)

	optionsJSON, resultJSON, err := marshalRun(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, options, result, study_area, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Status), string(optionsJSON), nullableString(resultJSON), run.StudyArea, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, options, result, study_area, error, created_at FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, source, status, options, result, study_area, error, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		status    string
		options   string
		result    sql.NullString
		createdAt time.Time
		studyArea []byte
	)
	if err := row.Scan(&r.ID, &r.Source, &status, &options, &result, &studyArea, &r.Error, &createdAt); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	r.StudyArea = studyArea
	r.CreatedAt = createdAt.UTC()

	var resultJSON []byte
	if result.Valid {
		resultJSON = []byte(result.String)
	}
	if err := unmarshalRun(&r, []byte(options), resultJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
