package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/settings"
)

// PgxPool is the subset of pgxpool.Pool the store uses. Tests substitute
// a pgxmock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS settings_snapshots (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outreach (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	contact_date TIMESTAMPTZ NOT NULL,
	notes        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scores (
	prospect_id TEXT PRIMARY KEY REFERENCES prospects(id),
	data        JSONB NOT NULL,
	scored_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	source     TEXT NOT NULL,
	imported   INTEGER NOT NULL,
	errors     INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prospects_company ON prospects(company);
CREATE INDEX IF NOT EXISTS idx_outreach_company ON outreach(lower(company));
CREATE INDEX IF NOT EXISTS idx_outreach_contact_date ON outreach(contact_date);
CREATE INDEX IF NOT EXISTS idx_settings_created ON settings_snapshots(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, snap *settings.Normalized) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal settings")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO settings_snapshots (id, data, created_at) VALUES ($1, $2, $3)`,
		uuid.New().String(), data, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert settings snapshot")
}

func (s *PostgresStore) LatestSettings(ctx context.Context) (*settings.Normalized, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM settings_snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest settings")
	}

	var snap settings.Normalized
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal settings")
	}
	return &snap, nil
}

func (s *PostgresStore) UpsertProspect(ctx context.Context, p model.Prospect) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal prospect")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO prospects (id, company, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET company = EXCLUDED.company, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Company, data, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: upsert prospect %s", p.ID)
	}
	return p.ID, nil
}

func (s *PostgresStore) ListProspects(ctx context.Context, limit int) ([]model.Prospect, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM prospects ORDER BY created_at LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		var p model.Prospect
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal prospect")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list prospects")
}

func (s *PostgresStore) AddOutreach(ctx context.Context, o model.Outreach) (string, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outreach (id, company, outcome, contact_date, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Company, o.Outcome, o.ContactDate.UTC(), o.Notes, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert outreach %s", o.ID)
	}
	return o.ID, nil
}

func (s *PostgresStore) ListOutreach(ctx context.Context, company string) ([]model.Outreach, error) {
	query := `SELECT id, company, outcome, contact_date, notes FROM outreach`
	var args []any
	if company != "" {
		query += ` WHERE lower(company) = lower($1)`
		args = append(args, company)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outreach")
	}
	defer rows.Close()

	var out []model.Outreach
	for rows.Next() {
		var o model.Outreach
		var notes *string
		if err := rows.Scan(&o.ID, &o.Company, &o.Outcome, &o.ContactDate, &notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outreach")
		}
		if notes != nil {
			o.Notes = *notes
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list outreach")
}

func (s *PostgresStore) SaveScore(ctx context.Context, rec *model.ScoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal score")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores (prospect_id, data, scored_at) VALUES ($1, $2, $3)
		 ON CONFLICT (prospect_id) DO UPDATE SET data = EXCLUDED.data, scored_at = EXCLUDED.scored_at`,
		rec.Prospect.ID, data, rec.ScoredAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save score %s", rec.Prospect.ID)
}

func (s *PostgresStore) GetScore(ctx context.Context, prospectID string) (*model.ScoredRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM scores WHERE prospect_id = $1`, prospectID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score %s", prospectID)
	}

	var rec model.ScoredRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal score")
	}
	return &rec, nil
}

func (s *PostgresStore) RecordImportRun(ctx context.Context, run ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, kind, source, imported, errors, warnings, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Kind, run.Source, run.ImportedRows, run.ErrorCount, run.WarningCount, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: record import run")
}
