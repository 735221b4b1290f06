package stattable

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ColumnKey addresses a raw column by its outer grouping label and inner
// metric name, e.g. {"Performance", "Gls"}.
type ColumnKey struct {
	Group  string
	Metric string
}

// RowKey is the identifying index of a raw row.
type RowKey struct {
	League string
	Season string
	Game   string
	Team   string
	Player string
}

// RawRow holds one player's cells, aligned with RawTable.Columns.
type RawRow struct {
	Key   RowKey
	Cells []string
}

// RawTable is a per-category statistic table as delivered by a source,
// before normalization.
type RawTable struct {
	Columns []ColumnKey
	Rows    []RawRow
}

// Row is one player's numeric statistics. NaN marks a missing value.
type Row struct {
	Player string
	Values []float64
}

// Table is a flat, player-keyed statistic table for one category of one
// match.
type Table struct {
	Columns []string
	Rows    []Row
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Players returns the player names in row order.
func (t *Table) Players() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Player
	}
	return out
}

// Means returns the per-column mean over rows, skipping missing values.
// A column with no values (including a zero-row table) yields NaN.
func (t *Table) Means() []float64 {
	out := make([]float64, len(t.Columns))
	vals := make([]float64, 0, len(t.Rows))
	for j := range t.Columns {
		vals = vals[:0]
		for _, r := range t.Rows {
			if v := r.Values[j]; !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = stat.Mean(vals, nil)
	}
	return out
}

// Set is a set of player names.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(name string) { s[name] = struct{}{} }

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}
