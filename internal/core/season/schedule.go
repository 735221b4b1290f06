package season

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// Schedule column names.
const (
	ColVenue       = "venue"
	ColResult      = "result"
	ColMatchReport = "match_report"
	ColGame        = "game"
)

// droppedColumns are non-numeric schedule fields with no modelling value.
var droppedColumns = []string{
	"date", "time", "round", "day", "attendance", "captain", "formation", "referee", "notes",
}

// MatchRecord is one cleaned schedule row.
type MatchRecord struct {
	ID     string // match identifier from the report URL
	Game   string // season-unique slug, the storage key of the match tables
	Venue  int    // 1 home, 0 away
	Result int    // 3 win, 1 draw, 0 loss

	// Fields holds every other column parsed as a number (NaN if not numeric).
	Fields map[string]float64
}

// Schedule is the cleaned season schedule of one team.
type Schedule struct {
	frame   dataframe.DataFrame
	Matches []MatchRecord
}

func (s *Schedule) Len() int { return len(s.Matches) }

// Frame exposes the underlying table.
func (s *Schedule) Frame() dataframe.DataFrame { return s.frame }

// Column returns a schedule column as numbers, positionally aligned with
// Matches. Lookup is exact first, then case-insensitive.
func (s *Schedule) Column(name string) ([]float64, error) {
	col, ok := findColumn(s.frame, name)
	if !ok {
		return nil, fmt.Errorf("schedule column %q: %w", name, stattable.ErrSchemaDrift)
	}
	return s.frame.Col(col).Float(), nil
}

// LoadRecords builds an all-string frame from header + rows.
func LoadRecords(records [][]string) (dataframe.DataFrame, error) {
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.HasHeader(true),
	)
	if df.Err != nil {
		return df, fmt.Errorf("load schedule records: %w", df.Err)
	}
	return df, nil
}

// CleanSchedule drops the descriptive columns, encodes venue and result
// numerically and reduces the match report URL to its match identifier.
func CleanSchedule(df dataframe.DataFrame) (*Schedule, error) {
	venueCol, resultCol, reportCol, err := requiredColumns(df)
	if err != nil {
		return nil, err
	}

	var drop []string
	for _, name := range droppedColumns {
		if col, ok := findColumn(df, name); ok {
			drop = append(drop, col)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
		if df.Err != nil {
			return nil, fmt.Errorf("drop schedule columns: %w", df.Err)
		}
	}

	venues := df.Col(venueCol).Records()
	venueCodes := make([]int, len(venues))
	for i, v := range venues {
		venueCodes[i] = EncodeVenue(v)
	}

	results := df.Col(resultCol).Records()
	resultCodes := make([]int, len(results))
	for i, r := range results {
		resultCodes[i] = EncodeResult(r)
	}

	reports := df.Col(reportCol).Records()
	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = MatchIDFromReport(r)
	}

	df = df.Mutate(series.New(venueCodes, series.Int, venueCol))
	df = df.Mutate(series.New(resultCodes, series.Int, resultCol))
	df = df.Mutate(series.New(ids, series.String, reportCol))
	if df.Err != nil {
		return nil, fmt.Errorf("encode schedule columns: %w", df.Err)
	}

	return NewSchedule(df)
}

// NewSchedule wraps an already cleaned frame.
func NewSchedule(df dataframe.DataFrame) (*Schedule, error) {
	venueCol, resultCol, reportCol, err := requiredColumns(df)
	if err != nil {
		return nil, err
	}
	gameCol, ok := findColumn(df, ColGame)
	if !ok {
		return nil, fmt.Errorf("schedule column %q: %w", ColGame, stattable.ErrSchemaDrift)
	}

	n := df.Nrow()
	ids := df.Col(reportCol).Records()
	games := df.Col(gameCol).Records()
	venues := df.Col(venueCol).Float()
	results := df.Col(resultCol).Float()

	skip := map[string]bool{venueCol: true, resultCol: true, reportCol: true, gameCol: true}
	numeric := make(map[string][]float64)
	for _, name := range df.Names() {
		if skip[name] {
			continue
		}
		numeric[name] = df.Col(name).Float()
	}

	s := &Schedule{frame: df, Matches: make([]MatchRecord, n)}
	for i := 0; i < n; i++ {
		fields := make(map[string]float64, len(numeric))
		for name, vals := range numeric {
			fields[name] = vals[i]
		}
		s.Matches[i] = MatchRecord{
			ID:     cleanRecord(ids[i]),
			Game:   cleanRecord(games[i]),
			Venue:  int(venues[i]),
			Result: int(results[i]),
			Fields: fields,
		}
	}
	return s, nil
}

// ReadCSV loads a cleaned schedule written by WriteCSV.
func ReadCSV(r io.Reader) (*Schedule, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read schedule csv: %w", df.Err)
	}
	return NewSchedule(df)
}

// WriteCSV persists the cleaned schedule.
func (s *Schedule) WriteCSV(w io.Writer) error {
	if err := s.frame.WriteCSV(w); err != nil {
		return fmt.Errorf("write schedule csv: %w", err)
	}
	return nil
}

// EncodeVenue maps "Home" to 1 and anything else to 0.
func EncodeVenue(v string) int {
	if strings.TrimSpace(v) == "Home" {
		return 1
	}
	return 0
}

// EncodeResult maps W to 3, L to 0 and anything else (draws) to 1.
func EncodeResult(r string) int {
	switch strings.TrimSpace(r) {
	case "W":
		return 3
	case "L":
		return 0
	}
	return 1
}

// MatchIDFromReport returns the 4th '/'-separated segment of the report
// URL path: "/en/matches/cc5b4244/..." -> "cc5b4244".
func MatchIDFromReport(report string) string {
	path := strings.TrimSpace(report)
	if u, err := url.Parse(path); err == nil && u.Path != "" {
		path = u.Path
	}
	parts := strings.Split(path, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

func requiredColumns(df dataframe.DataFrame) (venue, result, report string, err error) {
	var ok bool
	if venue, ok = findColumn(df, ColVenue); !ok {
		return "", "", "", fmt.Errorf("schedule column %q: %w", ColVenue, stattable.ErrSchemaDrift)
	}
	if result, ok = findColumn(df, ColResult); !ok {
		return "", "", "", fmt.Errorf("schedule column %q: %w", ColResult, stattable.ErrSchemaDrift)
	}
	if report, ok = findColumn(df, ColMatchReport); !ok {
		return "", "", "", fmt.Errorf("schedule column %q: %w", ColMatchReport, stattable.ErrSchemaDrift)
	}
	return venue, result, report, nil
}

func findColumn(df dataframe.DataFrame, name string) (string, bool) {
	names := df.Names()
	for _, n := range names {
		if n == name {
			return n, true
		}
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// cleanRecord maps gota's missing-value rendering back to empty.
func cleanRecord(s string) string {
	if s == "NaN" {
		return ""
	}
	return s
}
