package stattable

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// derivedMarkers flag ratio/derived columns that are excluded by policy.
const derivedMarkers = "%#()"

// identifying columns are implicit from a table's storage key.
var identifying = map[string]bool{
	"league": true,
	"season": true,
	"game":   true,
	"team":   true,
	"player": true,
}

// Normalize reshapes a raw category table into a flat, player-keyed table
// restricted to players:
//
//  1. keep rows whose player is in players
//  2. collapse (group, metric) keys to metric, first occurrence wins
//  3. drop the empty-named column left by the collapse
//  4. drop columns containing any of % # ( )
//  5. flatten, drop identifying and non-numeric columns
//  6. lower-case names and strip whitespace
//
// An empty selection yields a zero-row table with the same columns.
func Normalize(raw *RawTable, players Set) (*Table, error) {
	if raw == nil {
		return &Table{}, nil
	}
	for i, r := range raw.Rows {
		if len(r.Cells) != len(raw.Columns) {
			return nil, fmt.Errorf("row %d (%s): %d cells for %d columns: %w",
				i, r.Key.Player, len(r.Cells), len(raw.Columns), ErrSchemaDrift)
		}
	}

	var rows []RawRow
	for _, r := range raw.Rows {
		if players.Has(r.Key.Player) {
			rows = append(rows, r)
		}
	}

	seen := make(map[string]bool, len(raw.Columns))
	var keep []int
	var names []string
	for i, col := range raw.Columns {
		name := col.Metric
		if seen[name] {
			continue
		}
		seen[name] = true
		if name == "" || strings.ContainsAny(name, derivedMarkers) {
			continue
		}
		if identifying[strings.ToLower(strings.TrimSpace(name))] {
			continue
		}
		keep = append(keep, i)
		names = append(names, name)
	}

	// Column types are decided over every raw row, not just the selection.
	numeric := make([]bool, len(keep))
	for j, src := range keep {
		numeric[j] = true
		for _, r := range raw.Rows {
			if _, ok := parseCell(r.Cells[src]); !ok {
				numeric[j] = false
				break
			}
		}
	}

	values := make([][]float64, len(rows))
	for i, r := range rows {
		values[i] = make([]float64, len(keep))
		for j, src := range keep {
			if numeric[j] {
				values[i][j], _ = parseCell(r.Cells[src])
			}
		}
	}

	out := &Table{}
	var cols []int
	for j, name := range names {
		if !numeric[j] {
			continue
		}
		cols = append(cols, j)
		out.Columns = append(out.Columns, name)
	}
	for i, r := range rows {
		vals := make([]float64, len(cols))
		for k, j := range cols {
			vals[k] = values[i][j]
		}
		out.Rows = append(out.Rows, Row{Player: r.Key.Player, Values: vals})
	}

	return CleanColumns(out), nil
}

// CleanColumns lower-cases column names, removes whitespace and drops any
// duplicate that results, keeping the first. Applying it twice is a no-op.
func CleanColumns(t *Table) *Table {
	seen := make(map[string]bool, len(t.Columns))
	var keep []int
	var names []string
	for i, c := range t.Columns {
		name := strings.Join(strings.Fields(strings.ToLower(c)), "")
		if seen[name] || identifying[name] {
			continue
		}
		seen[name] = true
		keep = append(keep, i)
		names = append(names, name)
	}

	out := &Table{Columns: names, Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		vals := make([]float64, len(keep))
		for k, j := range keep {
			vals[k] = r.Values[j]
		}
		out.Rows[i] = Row{Player: r.Player, Values: vals}
	}
	return out
}

// parseCell reads a numeric cell. Empty cells are missing values; fbref
// renders large counts with thousands separators.
func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
