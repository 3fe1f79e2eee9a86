package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// FromFlags builds a Config from command-line arguments. An optional -config
// file is loaded first; flags given explicitly override it.
func FromFlags(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("simexchange", flag.ContinueOnError)
	fs.SetOutput(output)

	def := Default()
	configFile := fs.String("config", "", "Path to YAML config file")
	price := fs.Float64("price", def.Simulation.InitialPrice, "Initial price")
	agents := fs.Int("agents", def.Simulation.NumAgents, "Number of agents")
	balance := fs.Float64("balance", def.Simulation.InitialBalance, "Initial agent balance")
	cycles := fs.Int("cycles", def.Cycles, "Cycles to run in headless mode")
	seed := fs.Int64("seed", def.Simulation.Seed, "Random seed")
	fast := fs.Bool("fast", def.Simulation.FastMode, "Skip volatility calculation")
	addr := fs.String("addr", "", "HTTP listen address; empty runs headless")
	tick := fs.Duration("tick", def.Server.TickInterval, "Interval between cycles when running from the API")
	redisAddr := fs.String("redis-addr", "", "Redis address for the snapshot cache; empty uses memory")
	redisTTL := fs.Duration("redis-ttl", def.Server.RedisTTL, "Snapshot cache TTL")
	logLevel := fs.String("log-level", def.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if *configFile != "" {
		loaded, err := Load(*configFile)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	// headless unless an address comes from the file or a flag
	if *configFile == "" {
		cfg.Server.Addr = ""
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "price":
			cfg.Simulation.InitialPrice = *price
		case "agents":
			cfg.Simulation.NumAgents = *agents
		case "balance":
			cfg.Simulation.InitialBalance = *balance
		case "cycles":
			cfg.Cycles = *cycles
		case "seed":
			cfg.Simulation.Seed = *seed
		case "fast":
			cfg.Simulation.FastMode = *fast
		case "addr":
			cfg.Server.Addr = *addr
		case "tick":
			cfg.Server.TickInterval = *tick
		case "redis-addr":
			cfg.Server.RedisAddr = *redisAddr
		case "redis-ttl":
			cfg.Server.RedisTTL = *redisTTL
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Server.RedisAddr != "" && cfg.Server.RedisTTL <= 0 {
		return Config{}, fmt.Errorf("%w: redis ttl must be positive, got %s", ErrInvalidConfig, cfg.Server.RedisTTL)
	}
	return cfg, nil
}

// Summary is a one-line description of the run parameters for startup logs.
func (c Config) Summary() string {
	s := c.Simulation
	return fmt.Sprintf("price=%.2f agents=%d balance=%.2f seed=%d fast=%t tick=%s",
		s.InitialPrice, s.NumAgents, s.InitialBalance, s.Seed, s.FastMode, c.Server.TickInterval.Round(time.Millisecond))
}
