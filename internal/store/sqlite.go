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

	"github.com/sells-group/parcel-risk/internal/model"
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
CREATE TABLE IF NOT EXISTS risk_history (
	id            TEXT PRIMARY KEY,
	address       TEXT NOT NULL,
	risk_score    INTEGER NOT NULL,
	severity_tier INTEGER NOT NULL,
	factors       TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS price_history (
	id          TEXT PRIMARY KEY,
	address     TEXT NOT NULL,
	deal_type   TEXT NOT NULL,
	price_score INTEGER NOT NULL,
	rationale   TEXT NOT NULL,
	metrics     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_risk_history_address ON risk_history(address, created_at);
CREATE INDEX IF NOT EXISTS idx_price_history_address ON price_history(address, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) SaveRisk(ctx context.Context, address string, result model.RiskScoreResult) error {
	factors, err := json.Marshal(result.Factors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal factors")
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO risk_history (id, address, risk_score, severity_tier, factors, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), address, result.Score, result.SeverityTier, string(factors), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert risk history")
}

func (t *sqliteTx) SavePrice(ctx context.Context, address string, result model.PriceScoreResult) error {
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO price_history (id, address, deal_type, price_score, rationale, metrics, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), address, result.Metrics.DealType, result.Score, result.Rationale, string(metrics), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert price history")
}

func (t *sqliteTx) Commit(_ context.Context) error {
	if t.done {
		return eris.New("sqlite: transaction already closed")
	}
	t.done = true
	return eris.Wrap(t.tx.Commit(), "sqlite: commit")
}

func (t *sqliteTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return eris.Wrap(err, "sqlite: rollback")
	}
	return nil
}

func (s *SQLiteStore) ListRisk(ctx context.Context, filter ListFilter) ([]model.RiskHistory, error) {
	query := `SELECT id, address, risk_score, severity_tier, factors, created_at FROM risk_history WHERE 1=1`
	query, args := sqliteFilter(query, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list risk history")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RiskHistory
	for rows.Next() {
		var h model.RiskHistory
		var factors string
		if err := rows.Scan(&h.ID, &h.Address, &h.RiskScore, &h.SeverityTier, &factors, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan risk history")
		}
		if err := json.Unmarshal([]byte(factors), &h.Factors); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal factors for %s", h.ID)
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate risk history")
}

func (s *SQLiteStore) ListPrice(ctx context.Context, filter ListFilter) ([]model.PriceHistory, error) {
	query := `SELECT id, address, deal_type, price_score, rationale, metrics, created_at FROM price_history WHERE 1=1`
	query, args := sqliteFilter(query, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list price history")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceHistory
	for rows.Next() {
		var h model.PriceHistory
		var metrics string
		if err := rows.Scan(&h.ID, &h.Address, &h.DealType, &h.PriceScore, &h.Rationale, &metrics, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price history")
		}
		if err := json.Unmarshal([]byte(metrics), &h.Metrics); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal metrics for %s", h.ID)
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate price history")
}

func sqliteFilter(query string, filter ListFilter) (string, []any) {
	var args []any
	if filter.Address != "" {
		query += ` AND address = ?`
		args = append(args, filter.Address)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}
	return query, args
}
