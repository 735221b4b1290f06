package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// ErrWeightsNotFound is returned when no weights are stored for a stat type.
var ErrWeightsNotFound = errors.New("weights not found")

// ErrInvalidKey is returned by the CSV store for match keys that are not a
// valid single path element (empty, "." or "..", or containing / \ or :).
var ErrInvalidKey = errors.New("invalid match key")

// TableStore persists per-match category tables under a match key.
// Put replaces whatever is stored for (key, category).
type TableStore interface {
	Put(ctx context.Context, key string, category stattable.Category, t *stattable.Table) error
	Get(ctx context.Context, key string, category stattable.Category) (*stattable.Table, error)
	Keys(ctx context.Context) ([]string, error)
}

// WeightStore persists the fitted weight vector of each stat type.
type WeightStore interface {
	PutWeights(ctx context.Context, statType string, w attribution.FeatureWeights) error
	GetWeights(ctx context.Context, statType string) (attribution.FeatureWeights, error)
}

// Store is a table store that also keeps weights.
type Store interface {
	TableStore
	WeightStore
	Close() error
}

// Open returns the store for driver: "sqlite" or "postgres" open a SQL
// store on dsn, "csv" treats dsn as the root directory.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return OpenSQL(driver, dsn)
	case DriverCSV:
		return OpenCSV(dsn)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverCSV      = "csv"
)

// OpenFromConfig opens the configured store. The csv driver is rooted at
// DataDir; the SQL drivers use StoreDSN.
func OpenFromConfig(cfg *config.Config) (Store, error) {
	if cfg.StoreDriver == DriverCSV {
		return Open(DriverCSV, cfg.DataDir)
	}
	return Open(cfg.StoreDriver, cfg.StoreDSN)
}
