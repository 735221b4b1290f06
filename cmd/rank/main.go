package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/ranking"
	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/store"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

func main() {
	stat := flag.String("stat", "all", "stat type to rank by, or all")
	top := flag.Int("top", 0, "players to show (overrides ranking.top)")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	p, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}

	statTypes := []attribution.StatType{attribution.Defense, attribution.Other, attribution.Attacking, attribution.Keepers}
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

	f, err := os.Open(cfg.SchedulePath)
	if err != nil {
		telemetry.Errorf("open schedule: %v (run cmd/aggregate first)", err)
		os.Exit(1)
	}
	sched, err := season.ReadCSV(f)
	f.Close()
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}

	st, err := store.OpenFromConfig(cfg)
	if err != nil {
		telemetry.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	ranker := ranking.NewRanker(st)
	for _, statType := range statTypes {
		weights, err := st.GetWeights(ctx, statType.Name())
		if errors.Is(err, store.ErrWeightsNotFound) {
			telemetry.Warnf("%s: no weights stored (run cmd/weights first)", statType)
			continue
		}
		if err != nil {
			telemetry.Errorf("%s: %v", statType, err)
			os.Exit(1)
		}

		scores, err := ranker.Rank(ctx, sched, statType.Category(), weights)
		if err != nil {
			telemetry.Errorf("%s: %v", statType, err)
			os.Exit(1)
		}

		n := p.Ranking.TopN(statType.Name())
		if *top > 0 {
			n = *top
		}
		fmt.Printf("=== %s (top %d of %d) ===\n", statType, min(n, len(scores)), len(scores))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPlayer\tScore\tApps\tPer App")
		for i, s := range ranking.Top(scores, n) {
			fmt.Fprintf(w, "%d\t%s\t%.3f\t%d\t%.3f\n", i+1, s.Player, s.Total, s.Appearances, s.Mean())
		}
		w.Flush()
		fmt.Println()
	}
}
