package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// SQLStore keeps match tables and weights in SQLite or Postgres.
// Row values are stored as a JSON array with null for missing values.
type SQLStore struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stat_tables (
		match_key  TEXT NOT NULL,
		category   TEXT NOT NULL,
		columns    TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (match_key, category)
	)`,
	`CREATE TABLE IF NOT EXISTS stat_rows (
		match_key TEXT    NOT NULL,
		category  TEXT    NOT NULL,
		row_idx   INTEGER NOT NULL,
		player    TEXT    NOT NULL,
		vals      TEXT    NOT NULL,
		PRIMARY KEY (match_key, category, row_idx)
	)`,
	`CREATE TABLE IF NOT EXISTS feature_weights (
		stat_type TEXT NOT NULL,
		feature   TEXT NOT NULL,
		weight    REAL NOT NULL,
		PRIMARY KEY (stat_type, feature)
	)`,
}

// OpenSQL opens (and if needed creates) the store. For sqlite dsn is a
// file path; for postgres a connection string.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver}

	var tables int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM stat_tables`).Scan(&tables); err != nil {
		db.Close()
		return nil, fmt.Errorf("read table count: %w", err)
	}
	if driver == DriverSQLite {
		var size int64
		row := db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
		if err := row.Scan(&size); err != nil {
			db.Close()
			return nil, fmt.Errorf("read db size: %w", err)
		}
		telemetry.Infof("Opened match store  path=%s  size=%s  tables=%d", dsn, humanize.Bytes(uint64(size)), tables)
	} else {
		telemetry.Infof("Opened match store  driver=%s  tables=%d", driver, tables)
	}
	return s, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Put(ctx context.Context, key string, category stattable.Category, t *stattable.Table) error {
	cols, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put %s/%s: %w", key, category.Name(), err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO stat_tables (match_key, category, columns, updated_at) VALUES (?,?,?,?)
		ON CONFLICT (match_key, category) DO UPDATE SET columns = excluded.columns, updated_at = excluded.updated_at`),
		key, category.Name(), string(cols), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("put %s/%s: %w", key, category.Name(), err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM stat_rows WHERE match_key = ? AND category = ?`),
		key, category.Name()); err != nil {
		return fmt.Errorf("clear rows %s/%s: %w", key, category.Name(), err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO stat_rows (match_key, category, row_idx, player, vals) VALUES (?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		vals, err := encodeValues(r.Values)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, key, category.Name(), i, r.Player, vals); err != nil {
			return fmt.Errorf("insert row %d of %s/%s: %w", i, key, category.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s/%s: %w", key, category.Name(), err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string, category stattable.Category) (*stattable.Table, error) {
	var cols string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT columns FROM stat_tables WHERE match_key = ? AND category = ?`),
		key, category.Name()).Scan(&cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", key, category.Name(), stattable.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", key, category.Name(), err)
	}

	t := &stattable.Table{}
	if err := json.Unmarshal([]byte(cols), &t.Columns); err != nil {
		return nil, fmt.Errorf("decode columns of %s/%s: %w", key, category.Name(), err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT player, vals FROM stat_rows WHERE match_key = ? AND category = ? ORDER BY row_idx`),
		key, category.Name())
	if err != nil {
		return nil, fmt.Errorf("get rows %s/%s: %w", key, category.Name(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var player, vals string
		if err := rows.Scan(&player, &vals); err != nil {
			return nil, fmt.Errorf("scan row of %s/%s: %w", key, category.Name(), err)
		}
		values, err := decodeValues(vals)
		if err != nil {
			return nil, fmt.Errorf("decode row of %s/%s: %w", key, category.Name(), err)
		}
		if len(values) != len(t.Columns) {
			return nil, fmt.Errorf("row of %s/%s has %d values for %d columns: %w",
				key, category.Name(), len(values), len(t.Columns), stattable.ErrSchemaDrift)
		}
		t.Rows = append(t.Rows, stattable.Row{Player: player, Values: values})
	}
	return t, rows.Err()
}

func (s *SQLStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT match_key FROM stat_tables ORDER BY match_key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLStore) PutWeights(ctx context.Context, statType string, w attribution.FeatureWeights) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put weights %s: %w", statType, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM feature_weights WHERE stat_type = ?`), statType); err != nil {
		return fmt.Errorf("clear weights %s: %w", statType, err)
	}
	for _, fw := range w.Sorted() {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO feature_weights (stat_type, feature, weight) VALUES (?,?,?)`),
			statType, fw.Feature, fw.Weight); err != nil {
			return fmt.Errorf("put weight %s/%s: %w", statType, fw.Feature, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weights %s: %w", statType, err)
	}
	return nil
}

func (s *SQLStore) GetWeights(ctx context.Context, statType string) (attribution.FeatureWeights, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT feature, weight FROM feature_weights WHERE stat_type = ?`), statType)
	if err != nil {
		return nil, fmt.Errorf("get weights %s: %w", statType, err)
	}
	defer rows.Close()

	w := attribution.FeatureWeights{}
	for rows.Next() {
		var (
			f string
			v float64
		)
		if err := rows.Scan(&f, &v); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		w[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(w) == 0 {
		return nil, fmt.Errorf("%s: %w", statType, ErrWeightsNotFound)
	}
	return w, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func encodeValues(values []float64) (string, error) {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			out[i] = &values[i]
		}
	}
	b, err := json.Marshal(out)
	return string(b), err
}

func decodeValues(s string) ([]float64, error) {
	var in []*float64
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, err
	}
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}
