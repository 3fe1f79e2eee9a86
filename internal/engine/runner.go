package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/port"
	"github.com/olyamironova/simexchange/internal/strategy"
	"go.uber.org/zap"
)

// Runner serialises access to a Simulator so the API and the background
// loop can share it, and publishes a snapshot after every change.
type Runner struct {
	mu    sync.Mutex
	sim   *Simulator
	cache port.SnapshotCache
	log   *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}

	// published is set once this runner has written to the cache. Run ids
	// derive from the seed, so an earlier process may have left an entry.
	published bool
}

func NewRunner(sim *Simulator, cache port.SnapshotCache, log *zap.SugaredLogger) *Runner {
	return &Runner{sim: sim, cache: cache, log: log}
}

// RunCycles runs up to n cycles, stopping early if ctx is cancelled between cycles.
func (r *Runner) RunCycles(ctx context.Context, n int) (CycleReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report CycleReport
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			r.finish(&report)
			return report, err
		}
		report.add(r.sim.RunCycle())
	}
	r.finish(&report)
	return report, nil
}

func (r *Runner) finish(report *CycleReport) {
	report.Cycle = r.sim.Cycle()
	if report.LastTrades == nil {
		report.LastTrades = []domain.Trade{}
	}
	r.publishLocked(context.Background())
}

// Start runs one cycle per interval until Stop is called or ctx ends.
func (r *Runner) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidSetting, interval)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go r.loop(loopCtx, interval, done)
	r.log.Infow("simulation loop started", "interval", interval)
	return nil
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.done == done {
				r.cancel, r.done = nil, nil
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			r.mu.Lock()
			trades := r.sim.RunCycle()
			r.publishLocked(ctx)
			cycle := r.sim.Cycle()
			r.mu.Unlock()
			r.log.Debugw("cycle complete", "cycle", cycle, "trades", len(trades))
		}
	}
}

// Stop cancels the background loop and waits for it to exit.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done
	r.log.Infow("simulation loop stopped")
	return nil
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Snapshot serves the cached snapshot when it matches the current cycle and
// otherwise rebuilds and republishes it.
func (r *Runner) Snapshot(ctx context.Context) domain.SimulationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil && r.published {
		cached, err := r.cache.GetSnapshot(ctx, r.sim.RunID())
		if err != nil {
			r.log.Warnw("snapshot cache read failed", "run_id", r.sim.RunID(), "error", err)
		} else if cached != nil && cached.Cycle == r.sim.Cycle() {
			return *cached
		}
	}
	return r.publishLocked(ctx)
}

func (r *Runner) publishLocked(ctx context.Context) domain.SimulationSnapshot {
	snap := r.sim.Snapshot()
	if r.cache == nil {
		return snap
	}
	if err := r.cache.SetSnapshot(ctx, snap.RunID, &snap); err != nil {
		r.log.Warnw("snapshot cache write failed", "run_id", snap.RunID, "cycle", snap.Cycle, "error", err)
		return snap
	}
	r.published = true
	return snap
}

func (r *Runner) Levels(depth int) domain.BookLevels {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Levels(depth)
}

func (r *Runner) Trades(limit int) []domain.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Trades(limit)
}

func (r *Runner) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.Reset()
	r.publishLocked(ctx)
}

func (r *Runner) SetBalanceInjectionSettings(ctx context.Context, cycles int64, amount float64) error {
	return r.update(ctx, func() error { return r.sim.SetBalanceInjectionSettings(cycles, amount) })
}

func (r *Runner) SetAvgSpreadCycles(ctx context.Context, cycles int) error {
	return r.update(ctx, func() error { return r.sim.SetAvgSpreadCycles(cycles) })
}

func (r *Runner) SetBotEnabled(ctx context.Context, enabled bool) {
	_ = r.update(ctx, func() error {
		r.sim.SetBotEnabled(enabled)
		return nil
	})
}

func (r *Runner) UpdateBotConfig(ctx context.Context, u strategy.BotConfigUpdate) (strategy.BotConfig, error) {
	var cfg strategy.BotConfig
	err := r.update(ctx, func() error {
		if err := r.sim.UpdateBotConfig(u); err != nil {
			return err
		}
		cfg = r.sim.BotConfig()
		return nil
	})
	return cfg, err
}

func (r *Runner) update(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	r.publishLocked(ctx)
	return nil
}
