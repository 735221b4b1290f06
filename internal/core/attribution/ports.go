package attribution

import (
	"context"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// TableReader loads a stored per-match table.
// Satisfied by *store.SQLStore and *store.CSVStore.
type TableReader interface {
	// Get returns stattable.ErrTableNotFound when nothing is stored under
	// key and category.
	Get(ctx context.Context, key string, category stattable.Category) (*stattable.Table, error)
}
