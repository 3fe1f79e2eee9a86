package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/simexchange/internal/adapter/cache"
	"github.com/olyamironova/simexchange/internal/adapter/in_memory"
	apihttp "github.com/olyamironova/simexchange/internal/api/http"
	"github.com/olyamironova/simexchange/internal/config"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/engine"
	"github.com/olyamironova/simexchange/internal/logger"
	"github.com/olyamironova/simexchange/internal/port"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, os.Stdout); err != nil {
		lg.Fatalw("simulation failed", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, lg *zap.SugaredLogger, out io.Writer) error {
	sim, err := engine.NewSimulator(cfg.Simulation, lg)
	if err != nil {
		return err
	}

	snapshots, closeCache, err := newSnapshotCache(ctx, cfg.Server, lg)
	if err != nil {
		return err
	}
	defer closeCache()

	runner := engine.NewRunner(sim, snapshots, lg)
	lg.Infow("starting", "summary", cfg.Summary(), "run_id", sim.RunID())

	if cfg.Server.Addr == "" {
		return runHeadless(ctx, runner, cfg.Cycles, out)
	}
	return serve(ctx, runner, cfg.Server, lg)
}

func newSnapshotCache(ctx context.Context, cfg config.Server, lg *zap.SugaredLogger) (port.SnapshotCache, func(), error) {
	if cfg.RedisAddr == "" {
		return in_memory.NewCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	lg.Infow("snapshot cache ready", "redis", cfg.RedisAddr, "ttl", cfg.RedisTTL)
	return rc, func() { _ = rc.Close() }, nil
}

func runHeadless(ctx context.Context, runner *engine.Runner, cycles int, out io.Writer) error {
	start := time.Now()
	report, err := runner.RunCycles(ctx, cycles)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printSummary(out, runner.Snapshot(context.Background()), report, time.Since(start))
	return nil
}

func printSummary(out io.Writer, snap domain.SimulationSnapshot, report engine.CycleReport, elapsed time.Duration) {
	fmt.Fprintf(out, "run %s: %d cycles in %s\n", snap.RunID, report.Cycles, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "price %.2f  volatility %.4f  trades %d  volume %d\n",
		snap.CurrentPrice, snap.Volatility, snap.TotalTrades, snap.TotalVolume)
	if snap.AvgSpread != nil {
		fmt.Fprintf(out, "average spread (last %d) %.4f\n", snap.AvgSpreadCycles, *snap.AvgSpread)
	}
	p := snap.Performance
	fmt.Fprintf(out, "agents: %d profitable, %d losing, %d flat; total profit %s, best %s, worst %s\n",
		p.Profitable, p.Losing, p.BreakEven, p.TotalProfit, p.BestProfit, p.WorstProfit)
	for _, s := range snap.Strategies {
		fmt.Fprintf(out, "  %-15s agents=%-3d avg=%-10s volume=%d\n", s.Strategy, s.Agents, s.AvgProfit, s.Volume)
	}
	if snap.Bot.Enabled {
		fmt.Fprintf(out, "bot: %d orders, %d submitted, %d filled\n",
			snap.Bot.OrdersPlaced, snap.Bot.SubmittedVolume, snap.Bot.FilledVolume)
	}
}

func serve(ctx context.Context, runner *engine.Runner, cfg config.Server, lg *zap.SugaredLogger) error {
	gin.SetMode(gin.ReleaseMode)
	api := apihttp.NewHTTPServer(ctx, runner, cfg.TickInterval, cfg.RateLimit, lg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Infow("HTTP server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if runner.Running() {
		_ = runner.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	lg.Infow("shutting down")
	return srv.Shutdown(shutdownCtx)
}
