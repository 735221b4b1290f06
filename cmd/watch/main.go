package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/events"
	"github.com/charleschow/squad-weights/internal/fanout"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

func main() {
	team := flag.String("team", "", "only show runs for this team")
	addr := flag.String("addr", "", "fanout server host:port (overrides FANOUT_ADDR)")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	if *addr != "" {
		cfg.FanoutAddr = *addr
	}

	bus := events.NewBus()
	subscribe(bus)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Infof("Watching %s", cfg.FanoutAddr)
	fanout.NewClient(cfg.FanoutAddr, *team, bus).ConnectWithRetry(ctx)
}

// subscribe prints progress events. Payloads of an unexpected type are
// skipped.
func subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventMatchStored, func(e events.Event) error {
		p, ok := e.Payload.(events.MatchStoredEvent)
		if !ok {
			telemetry.Debugf("skip %s payload %T", e.Type, e.Payload)
			return nil
		}
		telemetry.Infof("[%s] stored %s  keepers=%d defense=%d passing=%d attacking=%d",
			e.Team, p.Key, p.Rows["keepers_stats"], p.Rows["defense_stats"], p.Rows["passing_stats"], p.Rows["attacking_stats"])
		return nil
	})
	bus.Subscribe(events.EventMatchFailed, func(e events.Event) error {
		p, ok := e.Payload.(events.MatchFailedEvent)
		if !ok {
			telemetry.Debugf("skip %s payload %T", e.Type, e.Payload)
			return nil
		}
		telemetry.Warnf("[%s] skipped %s: %s", e.Team, p.MatchID, p.Reason)
		return nil
	})
	bus.Subscribe(events.EventSeasonDone, func(e events.Event) error {
		p, ok := e.Payload.(events.SeasonDoneEvent)
		if !ok {
			telemetry.Debugf("skip %s payload %T", e.Type, e.Payload)
			return nil
		}
		telemetry.Infof("[%s] run %s done  matches=%d stored=%d failed=%d", e.Team, e.RunID, p.Matches, p.Stored, p.Failed)
		return nil
	})
}
