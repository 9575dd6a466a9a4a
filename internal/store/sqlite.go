package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/settings"
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS settings_snapshots (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS outreach (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	contact_date DATETIME NOT NULL,
	notes        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scores (
	prospect_id TEXT PRIMARY KEY REFERENCES prospects(id),
	data        TEXT NOT NULL,
	scored_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	source     TEXT NOT NULL,
	imported   INTEGER NOT NULL,
	errors     INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prospects_company ON prospects(company);
CREATE INDEX IF NOT EXISTS idx_outreach_company ON outreach(company);
CREATE INDEX IF NOT EXISTS idx_outreach_contact_date ON outreach(contact_date);
CREATE INDEX IF NOT EXISTS idx_settings_created ON settings_snapshots(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, snap *settings.Normalized) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal settings")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings_snapshots (id, data, created_at) VALUES (?, ?, ?)`,
		uuid.New().String(), string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert settings snapshot")
}

func (s *SQLiteStore) LatestSettings(ctx context.Context) (*settings.Normalized, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM settings_snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest settings")
	}

	var snap settings.Normalized
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal settings")
	}
	return &snap, nil
}

func (s *SQLiteStore) UpsertProspect(ctx context.Context, p model.Prospect) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal prospect")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prospects (id, company, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET company = excluded.company, data = excluded.data, updated_at = excluded.updated_at`,
		p.ID, p.Company, string(data), now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert prospect %s", p.ID)
	}
	return p.ID, nil
}

func (s *SQLiteStore) ListProspects(ctx context.Context, limit int) ([]model.Prospect, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM prospects ORDER BY created_at LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Prospect
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prospect")
		}
		var p model.Prospect
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal prospect")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list prospects")
}

func (s *SQLiteStore) AddOutreach(ctx context.Context, o model.Outreach) (string, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outreach (id, company, outcome, contact_date, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.Company, o.Outcome, o.ContactDate.UTC(), o.Notes, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert outreach %s", o.ID)
	}
	return o.ID, nil
}

func (s *SQLiteStore) ListOutreach(ctx context.Context, company string) ([]model.Outreach, error) {
	// created_at order preserves input order so same-date ties resolve
	// to the last-logged entry.
	query := `SELECT id, company, outcome, contact_date, notes FROM outreach`
	var args []any
	if company != "" {
		query += ` WHERE company = ? COLLATE NOCASE`
		args = append(args, company)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outreach")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Outreach
	for rows.Next() {
		var o model.Outreach
		var notes sql.NullString
		if err := rows.Scan(&o.ID, &o.Company, &o.Outcome, &o.ContactDate, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outreach")
		}
		o.Notes = notes.String
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list outreach")
}

func (s *SQLiteStore) SaveScore(ctx context.Context, rec *model.ScoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal score")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (prospect_id, data, scored_at) VALUES (?, ?, ?)
		 ON CONFLICT(prospect_id) DO UPDATE SET data = excluded.data, scored_at = excluded.scored_at`,
		rec.Prospect.ID, string(data), rec.ScoredAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save score %s", rec.Prospect.ID)
}

func (s *SQLiteStore) GetScore(ctx context.Context, prospectID string) (*model.ScoredRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scores WHERE prospect_id = ?`, prospectID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score %s", prospectID)
	}

	var rec model.ScoredRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal score")
	}
	return &rec, nil
}

func (s *SQLiteStore) RecordImportRun(ctx context.Context, run ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, kind, source, imported, errors, warnings, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Source, run.ImportedRows, run.ErrorCount, run.WarningCount, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: record import run")
}
