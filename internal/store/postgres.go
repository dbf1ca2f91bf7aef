package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pointpattern/internal/db"
)

// PostgresStore implements Store on a PostgreSQL pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to connString and returns a PostgresStore that owns
// the pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close does not close it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS nn_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL,
	options    JSONB NOT NULL,
	result     JSONB,
	study_area BYTEA,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_nn_runs_status ON nn_runs(status);
CREATE INDEX IF NOT EXISTS idx_nn_runs_source ON nn_runs(source);
CREATE INDEX IF NOT EXISTS idx_nn_runs_created_at ON nn_runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	prepareRun(run)

	optionsJSON, resultJSON, err := marshalRun(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO nn_runs (id, source, status, options, result, study_area, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Source, string(run.Status), optionsJSON, resultJSON, run.StudyArea, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

const selectRun = `SELECT id, source, status, options, result, study_area, error, created_at FROM nn_runs`

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.pool.QueryRow(ctx, selectRun+` WHERE id = $1`, id)
	r, err := scanPostgresRun(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := selectRun + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*Run, error) {
	var (
		r           Run
		status      string
		optionsJSON []byte
		resultJSON  []byte
		createdAt   time.Time
	)
	if err := row.Scan(&r.ID, &r.Source, &status, &optionsJSON, &resultJSON, &r.StudyArea, &r.Error, &createdAt); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	r.CreatedAt = createdAt.UTC()
	if err := unmarshalRun(&r, optionsJSON, resultJSON); err != nil {
		return nil, err
	}
	return &r, nil
}
