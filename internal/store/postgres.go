package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-risk/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS risk_history (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	address       TEXT NOT NULL,
	risk_score    INTEGER NOT NULL,
	severity_tier SMALLINT NOT NULL,
	factors       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_history (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	address     TEXT NOT NULL,
	deal_type   TEXT NOT NULL,
	price_score INTEGER NOT NULL,
	rationale   TEXT NOT NULL,
	metrics     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_risk_history_address ON risk_history(address, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_price_history_address ON price_history(address, created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx   pgx.Tx
	done bool
}

func (t *pgTx) SaveRisk(ctx context.Context, address string, result model.RiskScoreResult) error {
	factors, err := json.Marshal(result.Factors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal factors")
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO risk_history (id, address, risk_score, severity_tier, factors, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), address, result.Score, result.SeverityTier, factors, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert risk history")
}

func (t *pgTx) SavePrice(ctx context.Context, address string, result model.PriceScoreResult) error {
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO price_history (id, address, deal_type, price_score, rationale, metrics, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), address, result.Metrics.DealType, result.Score, result.Rationale, metrics, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert price history")
}

func (t *pgTx) Commit(ctx context.Context) error {
	if t.done {
		return eris.New("postgres: transaction already closed")
	}
	t.done = true
	return eris.Wrap(t.tx.Commit(ctx), "postgres: commit")
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return eris.Wrap(err, "postgres: rollback")
	}
	return nil
}

func (s *PostgresStore) ListRisk(ctx context.Context, filter ListFilter) ([]model.RiskHistory, error) {
	query, args := postgresFilter(
		`SELECT id, address, risk_score, severity_tier, factors, created_at FROM risk_history WHERE true`, filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list risk history")
	}
	defer rows.Close()

	var out []model.RiskHistory
	for rows.Next() {
		var h model.RiskHistory
		var factors []byte
		if err := rows.Scan(&h.ID, &h.Address, &h.RiskScore, &h.SeverityTier, &factors, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan risk history")
		}
		if err := json.Unmarshal(factors, &h.Factors); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal factors for %s", h.ID)
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate risk history")
}

func (s *PostgresStore) ListPrice(ctx context.Context, filter ListFilter) ([]model.PriceHistory, error) {
	query, args := postgresFilter(
		`SELECT id, address, deal_type, price_score, rationale, metrics, created_at FROM price_history WHERE true`, filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list price history")
	}
	defer rows.Close()

	var out []model.PriceHistory
	for rows.Next() {
		var h model.PriceHistory
		var metrics []byte
		if err := rows.Scan(&h.ID, &h.Address, &h.DealType, &h.PriceScore, &h.Rationale, &metrics, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price history")
		}
		if err := json.Unmarshal(metrics, &h.Metrics); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal metrics for %s", h.ID)
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate price history")
}

func postgresFilter(query string, filter ListFilter) (string, []any) {
	var args []any
	argIdx := 1
	if filter.Address != "" {
		query += fmt.Sprintf(` AND address = $%d`, argIdx)
		args = append(args, filter.Address)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}
	return query, args
}
