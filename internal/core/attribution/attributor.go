package attribution

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// Options control the hold-out split.
type Options struct {
	TestFraction float64
	Seed         uint64
}

func DefaultOptions() Options {
	return Options{TestFraction: 0.2, Seed: 42}
}

// Result is the outcome of one attribution run.
type Result struct {
	StatType StatType
	Targets  []string
	Features []string

	// PerTarget holds the normalized weights of each target separately.
	PerTarget map[string]FeatureWeights
	// Weights is the per-feature average over targets.
	Weights   FeatureWeights

	Rows         int
	TablesFound  int
	ExcludedRows int
	TrainRows    int
	TestRows     int

	// HoldoutR2 is empty when there is no hold-out.
	HoldoutR2 map[string]float64
}

// Attributor estimates how strongly each feature of a category table
// relates to the season outcomes.
type Attributor struct {
	tables TableReader
	opts   Options
}

func NewAttributor(tables TableReader, opts Options) *Attributor {
	return &Attributor{tables: tables, opts: opts}
}

// Attribute builds one averaged feature row per match, regresses the stat
// type's targets on the standardized features of a seeded training split
// and turns the absolute coefficients into weights.
func (a *Attributor) Attribute(ctx context.Context, sched *season.Schedule, st StatType) (*Result, error) {
	targets := st.Targets()
	targetCols := make([][]float64, len(targets))
	for k, name := range targets {
		col, err := sched.Column(name)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", st, err)
		}
		targetCols[k] = col
	}

	agg, err := AggregateMatches(ctx, a.tables, sched, st.Category())
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", st, err)
	}
	if agg.Found == 0 {
		return nil, fmt.Errorf("attribute %s: no stored tables for %d matches: %w", st, sched.Len(), ErrDataUnavailable)
	}

	ds, err := assemble(targets, targetCols, agg)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", st, err)
	}
	if len(ds.features) == 0 || len(ds.x) == 0 {
		return nil, fmt.Errorf("attribute %s: %d features, %d complete rows: %w", st, len(ds.features), len(ds.x), ErrDataUnavailable)
	}

	train, test := splitIndices(len(ds.x), a.opts.TestFraction, a.opts.Seed)
	xTrain, yTrain := pick(ds.x, train), pick(ds.y, train)

	sc := fitScaler(xTrain, len(ds.features))
	model, err := fitLinear(sc.transform(xTrain), yTrain)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", st, err)
	}

	res := &Result{
		StatType:     st,
		Targets:      targets,
		Features:     ds.features,
		PerTarget:    make(map[string]FeatureWeights, len(targets)),
		Rows:         sched.Len(),
		TablesFound:  agg.Found,
		ExcludedRows: ds.excluded,
		TrainRows:    len(train),
		TestRows:     len(test),
		HoldoutR2:    make(map[string]float64),
	}

	avg := make([]float64, len(ds.features))
	for t, name := range targets {
		w := normalizeColumn(model.coef, t)
		res.PerTarget[name] = toWeights(ds.features, w)
		floats.Add(avg, w)
	}
	floats.Scale(1/float64(len(targets)), avg)
	res.Weights = toWeights(ds.features, avg)

	if len(test) > 1 {
		xTest, yTest := pick(ds.x, test), pick(ds.y, test)
		pred := model.predict(sc.transform(xTest))
		for t, name := range targets {
			if v := r2(pred, yTest, t); !math.IsNaN(v) {
				res.HoldoutR2[name] = v
			}
		}
	}

	telemetry.Infof("attribution %s: %d features from %d/%d matches, train=%d test=%d excluded=%d",
		st, len(ds.features), agg.Found, sched.Len(), res.TrainRows, res.TestRows, res.ExcludedRows)
	return res, nil
}
