// Package store persists risk and price analyses. History is append-only:
// rows are written inside a caller-owned transaction and never updated.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-risk/internal/model"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListFilter narrows a history listing.
type ListFilter struct {
	Address string `json:"address,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

func (f ListFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// Tx is an open write transaction. Rollback after Commit is a no-op, so
// callers may defer it unconditionally.
type Tx interface {
	SaveRisk(ctx context.Context, address string, result model.RiskScoreResult) error
	SavePrice(ctx context.Context, address string, result model.PriceScoreResult) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the history backend.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	ListRisk(ctx context.Context, filter ListFilter) ([]model.RiskHistory, error)
	ListPrice(ctx context.Context, filter ListFilter) ([]model.PriceHistory, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(dsn)
	case DriverPostgres:
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
