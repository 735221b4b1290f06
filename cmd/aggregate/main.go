package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charleschow/squad-weights/internal/adapters/outbound/fbref"
	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/matchstats"
	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/events"
	"github.com/charleschow/squad-weights/internal/fanout"
	"github.com/charleschow/squad-weights/internal/store"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

func main() {
	pipelinePath := flag.String("config", "", "pipeline YAML (overrides PIPELINE_CONFIG_PATH)")
	workers := flag.Int("workers", 0, "matches processed concurrently (overrides aggregate.workers)")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	if *pipelinePath != "" {
		cfg.PipelineConfigPath = *pipelinePath
	}
	p, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}
	if *workers > 0 {
		p.Aggregate.Workers = *workers
	}
	telemetry.Infof("Aggregating season  team=%s  league=%s  season=%s  store=%s", p.Team, p.League, p.Season, cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Progress fanout ─────────────────────────────────────────
	bus := events.NewBus()
	if cfg.FanoutPort > 0 {
		srv := fanout.NewServer(bus)
		go func() {
			if err := srv.ListenAndServe(cfg.FanoutPort); err != nil {
				telemetry.Warnf("fanout server: %v", err)
			}
		}()
	}

	// ── Store ───────────────────────────────────────────────────
	st, err := store.OpenFromConfig(cfg)
	if err != nil {
		telemetry.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── Schedule ────────────────────────────────────────────────
	client := fbref.NewClient(fbref.OptionsFromPipeline(p))
	sched, err := loadSchedule(ctx, client)
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}
	if err := saveSchedule(cfg.SchedulePath, sched); err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}
	telemetry.Infof("Schedule saved  path=%s  matches=%d", cfg.SchedulePath, sched.Len())

	// ── Matches ─────────────────────────────────────────────────
	agg := season.NewAggregator(matchstats.NewBuilder(client, client, p.Team), st, bus, p.Team, p.Aggregate.Workers)
	rep, err := agg.Run(ctx, sched)
	telemetry.LogSummary()
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}

	telemetry.Infof("Done  run=%s  matches=%d  stored=%d  failed=%d", rep.RunID, rep.Matches, rep.Stored, rep.Failed)
	for _, id := range rep.FailedIDs {
		telemetry.Plainf("  skipped %s", id)
	}
}

func loadSchedule(ctx context.Context, src season.ScheduleSource) (*season.Schedule, error) {
	records, err := src.ScheduleRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	df, err := season.LoadRecords(records)
	if err != nil {
		return nil, err
	}
	return season.CleanSchedule(df)
}

func saveSchedule(path string, sched *season.Schedule) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create schedule dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create schedule file: %w", err)
	}
	if err := sched.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
