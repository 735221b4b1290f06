package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// playerColumn heads the player name column of a table file.
const playerColumn = "player"

// CSVStore keeps one file per table at <root>/<key>/<category>.csv and
// one <stat_type>weight.csv per weight vector. Table files carry a leading
// row-index column, then the player column, then the statistics.
type CSVStore struct {
	root string
	mu   sync.Mutex
}

func OpenCSV(root string) (*CSVStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create csv store dir: %w", err)
	}
	telemetry.Infof("Opened csv match store  root=%s", root)
	return &CSVStore{root: root}, nil
}

func (s *CSVStore) tablePath(key string, category stattable.Category) string {
	return filepath.Join(s.root, key, category.Name()+".csv")
}

func (s *CSVStore) weightsPath(statType string) string {
	return filepath.Join(s.root, safeName(statType)+"weight.csv")
}

func (s *CSVStore) Put(_ context.Context, key string, category stattable.Category, t *stattable.Table) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.tablePath(key, category)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create match dir: %w", err)
	}

	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string{"", playerColumn}, t.Columns...))
	for i, r := range t.Rows {
		rec := make([]string, 0, len(r.Values)+2)
		rec = append(rec, strconv.Itoa(i), r.Player)
		for _, v := range r.Values {
			rec = append(rec, formatValue(v))
		}
		records = append(records, rec)
	}
	return writeAtomic(path, records)
}

func (s *CSVStore) Get(_ context.Context, key string, category stattable.Category) (*stattable.Table, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	records, err := readRecords(s.tablePath(key, category))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", key, category.Name(), stattable.ErrTableNotFound)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s/%s is empty: %w", key, category.Name(), stattable.ErrSchemaDrift)
	}

	header := records[0]
	if len(header) < 2 || header[1] != playerColumn {
		return nil, fmt.Errorf("%s/%s header %v has no %q column: %w",
			key, category.Name(), header, playerColumn, stattable.ErrSchemaDrift)
	}

	t := &stattable.Table{Columns: append([]string(nil), header[2:]...)}
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s/%s row has %d cells for %d columns: %w",
				key, category.Name(), len(rec), len(header), stattable.ErrSchemaDrift)
		}
		values := make([]float64, len(t.Columns))
		for j, cell := range rec[2:] {
			values[j] = parseValue(cell)
		}
		t.Rows = append(t.Rows, stattable.Row{Player: rec[1], Values: values})
	}
	return t, nil
}

func (s *CSVStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list csv store: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *CSVStore) PutWeights(_ context.Context, statType string, w attribution.FeatureWeights) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.weightsPath(statType)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	if err := w.WriteCSV(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close weights file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *CSVStore) GetWeights(_ context.Context, statType string) (attribution.FeatureWeights, error) {
	f, err := os.Open(s.weightsPath(statType))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", statType, ErrWeightsNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	defer f.Close()
	return attribution.ReadWeightsCSV(f)
}

func (s *CSVStore) Close() error { return nil }

func writeAtomic(path string, records [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// checkKey rejects match keys that are not a single path element, so that
// every key listed by Keys can be read back unchanged.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\:`) {
		return fmt.Errorf("match key %q: %w", key, ErrInvalidKey)
	}
	return nil
}

// safeName keeps a key usable as a single path element.
func safeName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(s)
}
