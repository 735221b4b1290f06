package season

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/events"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// Report summarizes a season run.
type Report struct {
	RunID     string
	Matches   int
	Stored    int
	Failed    int
	FailedIDs []string
	Keys      map[string]string // match id -> storage key
}

// Aggregator drives the match builder across a season and persists every
// match's category tables.
type Aggregator struct {
	builder MatchBuilder
	tables  TableWriter
	bus     *events.Bus
	team    string
	workers int
}

// NewAggregator returns an aggregator running up to workers matches at
// once. bus may be nil.
func NewAggregator(builder MatchBuilder, tables TableWriter, bus *events.Bus, team string, workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		builder: builder,
		tables:  tables,
		bus:     bus,
		team:    team,
		workers: workers,
	}
}

// Run processes every schedule row. Matches with missing data are logged
// and skipped; schema drift and store failures abort the run.
func (a *Aggregator) Run(ctx context.Context, sched *Schedule) (*Report, error) {
	rep := &Report{
		RunID:   uuid.NewString(),
		Matches: sched.Len(),
		Keys:    make(map[string]string, sched.Len()),
	}
	telemetry.Infof("season run %s: %d matches for %s (workers=%d)", rep.RunID, rep.Matches, a.team, a.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, m := range sched.Matches {
		g.Go(func() error {
			telemetry.Metrics.ActiveWorkers.Inc()
			defer telemetry.Metrics.ActiveWorkers.Dec()

			key, rows, err := a.processMatch(gctx, m)
			telemetry.Metrics.MatchesProcessed.Inc()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, stattable.ErrMissingMatchData) {
					return err
				}
				telemetry.Metrics.MatchesFailed.Inc()
				telemetry.Warnf("season run %s: skipping match %s: %v", rep.RunID, m.ID, err)
				rep.Failed++
				rep.FailedIDs = append(rep.FailedIDs, m.ID)
				a.publish(rep.RunID, m.ID, events.EventMatchFailed, events.MatchFailedEvent{MatchID: m.ID, Reason: err.Error()})
				return nil
			}
			rep.Stored++
			rep.Keys[m.ID] = key
			a.publish(rep.RunID, m.ID, events.EventMatchStored, events.MatchStoredEvent{MatchID: m.ID, Key: key, Rows: rows})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("season run %s: %w", rep.RunID, err)
	}

	a.publish(rep.RunID, "", events.EventSeasonDone, events.SeasonDoneEvent{Matches: rep.Matches, Stored: rep.Stored, Failed: rep.Failed})
	telemetry.Infof("season run %s: stored=%d failed=%d", rep.RunID, rep.Stored, rep.Failed)
	return rep, nil
}

func (a *Aggregator) processMatch(ctx context.Context, m MatchRecord) (string, map[string]int, error) {
	if m.ID == "" {
		return "", nil, fmt.Errorf("game %q has no match report: %w", m.Game, stattable.ErrMissingMatchData)
	}

	ms, err := a.builder.Build(ctx, m.ID)
	if err != nil {
		return "", nil, err
	}
	if m.Game != "" && ms.Key != m.Game {
		telemetry.Warnf("match %s: storage key %q differs from schedule game %q", m.ID, ms.Key, m.Game)
	}

	rows := make(map[string]int, len(ms.Tables))
	for _, cat := range stattable.Categories {
		t := ms.Tables[cat]
		start := time.Now()
		if err := a.tables.Put(ctx, ms.Key, cat, t); err != nil {
			return "", nil, fmt.Errorf("store %s/%s: %w", ms.Key, cat.Name(), err)
		}
		telemetry.Metrics.StoreLatency.Record(time.Since(start))
		telemetry.Metrics.TablesStored.Inc()
		rows[cat.Name()] = len(t.Rows)
	}
	return ms.Key, rows, nil
}

func (a *Aggregator) publish(runID, matchID string, typ events.EventType, payload any) {
	a.bus.Publish(events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		RunID:     runID,
		Team:      a.team,
		MatchID:   matchID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
