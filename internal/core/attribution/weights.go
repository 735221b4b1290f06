package attribution

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightsHeader is the header row of a persisted weights file.
var WeightsHeader = []string{"Feature", "Average_Weight"}

// FeatureWeight is one feature's share of the total attribution.
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// FeatureWeights maps a feature column to a non-negative weight. A fitted
// vector sums to 1.
type FeatureWeights map[string]float64

// Sorted returns weights by descending weight, ties by feature name.
func (w FeatureWeights) Sorted() []FeatureWeight {
	out := make([]FeatureWeight, 0, len(w))
	for f, v := range w {
		out = append(out, FeatureWeight{Feature: f, Weight: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// Sum is the total weight.
func (w FeatureWeights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// WriteCSV writes the weights sorted by descending weight.
func (w FeatureWeights) WriteCSV(out io.Writer) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(WeightsHeader); err != nil {
		return fmt.Errorf("write weights header: %w", err)
	}
	for _, fw := range w.Sorted() {
		if err := cw.Write([]string{fw.Feature, strconv.FormatFloat(fw.Weight, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("write weight %s: %w", fw.Feature, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadWeightsCSV parses a file written by WriteCSV.
func ReadWeightsCSV(in io.Reader) (FeatureWeights, error) {
	records, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read weights csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read weights csv: empty file")
	}
	if len(records[0]) < 2 || records[0][0] != WeightsHeader[0] {
		return nil, fmt.Errorf("read weights csv: unexpected header %v", records[0])
	}
	w := make(FeatureWeights, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", rec[0], err)
		}
		w[rec[0]] = v
	}
	return w, nil
}

// normalizeColumn turns the coefficients of one target into a distribution
// over features: |c| / sum|c|, uniform when every coefficient is zero.
func normalizeColumn(coef *mat.Dense, t int) []float64 {
	p, _ := coef.Dims()
	w := make([]float64, p)
	for j := 0; j < p; j++ {
		w[j] = math.Abs(coef.At(j, t))
	}
	total := floats.Sum(w)
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		for j := range w {
			w[j] = 1 / float64(p)
		}
		return w
	}
	floats.Scale(1/total, w)
	return w
}

func toWeights(features []string, w []float64) FeatureWeights {
	out := make(FeatureWeights, len(features))
	for j, f := range features {
		out[f] = w[j]
	}
	return out
}
