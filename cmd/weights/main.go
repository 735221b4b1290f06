package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/store"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

func main() {
	stat := flag.String("stat", "all", "stat type: attacking_stats, defense_stats, keepers_stats, other, or all")
	n := flag.Int("n", 15, "weights to print per stat type")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	p, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}

	statTypes := []attribution.StatType{attribution.Attacking, attribution.Defense, attribution.Keepers, attribution.Other}
	if *stat != "all" {
		st, err := attribution.ParseStatType(*stat)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		statTypes = []attribution.StatType{st}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := readSchedule(cfg.SchedulePath)
	if err != nil {
		telemetry.Errorf("%v (run cmd/aggregate first)", err)
		os.Exit(1)
	}

	st, err := store.OpenFromConfig(cfg)
	if err != nil {
		telemetry.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	a := attribution.NewAttributor(st, attribution.Options{
		TestFraction: p.Attribution.TestFraction,
		Seed:         p.Attribution.Seed,
	})

	failed := false
	for _, statType := range statTypes {
		res, err := a.Attribute(ctx, sched, statType)
		if errors.Is(err, attribution.ErrDataUnavailable) {
			telemetry.Warnf("%s: %v", statType, err)
			continue
		}
		if err != nil {
			telemetry.Errorf("%s: %v", statType, err)
			failed = true
			continue
		}
		if err := st.PutWeights(ctx, statType.Name(), res.Weights); err != nil {
			telemetry.Errorf("%s: save weights: %v", statType, err)
			failed = true
			continue
		}
		printResult(res, *n)
	}
	if failed {
		os.Exit(1)
	}
}

func readSchedule(path string) (*season.Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()
	return season.ReadCSV(f)
}

func printResult(res *attribution.Result, n int) {
	fmt.Printf("=== %s ===\n", res.StatType)
	fmt.Printf("Matches: %d  |  Tables: %d  |  Train: %d  Test: %d  Excluded: %d\n",
		res.Rows, res.TablesFound, res.TrainRows, res.TestRows, res.ExcludedRows)

	if len(res.HoldoutR2) > 0 {
		targets := make([]string, 0, len(res.HoldoutR2))
		for t := range res.HoldoutR2 {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		fmt.Print("Hold-out R²:")
		for _, t := range targets {
			fmt.Printf("  %s=%.3f", t, res.HoldoutR2[t])
		}
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Feature\tAverage_Weight")
	for i, fw := range res.Weights.Sorted() {
		if i >= n {
			break
		}
		fmt.Fprintf(w, "%s\t%.4f\n", fw.Feature, fw.Weight)
	}
	w.Flush()
	fmt.Println()
}
