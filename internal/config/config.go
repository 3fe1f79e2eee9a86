// Package config loads and validates simulation and server settings.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/olyamironova/simexchange/internal/strategy"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
log_level: info
cycles: 1000
simulation:
  initial_price: 100
  num_agents: 20
  initial_balance: 10000
  seed: 42
  balance_injection_cycles: 100
  balance_injection_amount: 1000
  risk_tolerance: [0.3, 0.8]
  cooldown: [0.5, 2.0]
  strategies:
    momentum: 0.1
    noise_trader: 0.9
  bot:
    enabled: true
    order_interval: 5
    order_type: both
server:
  addr: ":8080"
  tick_interval: 200ms
  redis_addr: "localhost:6379"
  redis_ttl: 30s
*/

var ErrInvalidConfig = errors.New("invalid config")

const weightTolerance = 0.001

type Config struct {
	LogLevel   string     `yaml:"log_level"`
	Cycles     int        `yaml:"cycles"`
	Simulation Simulation `yaml:"simulation"`
	Server     Server     `yaml:"server"`
}

type Simulation struct {
	InitialPrice     float64 `yaml:"initial_price"`
	NumAgents        int     `yaml:"num_agents"`
	InitialBalance   float64 `yaml:"initial_balance"`
	Seed             int64   `yaml:"seed"`
	FastMode         bool    `yaml:"fast_mode"`
	MaxHistory       int     `yaml:"max_history"`
	MaxTradesHistory int     `yaml:"max_trades_history"`
	SnapshotWindow   int     `yaml:"snapshot_window"`
	BookDepth        int     `yaml:"book_depth"`

	BalanceInjectionCycles int64   `yaml:"balance_injection_cycles"`
	BalanceInjectionAmount float64 `yaml:"balance_injection_amount"`
	AvgSpreadCycles        int     `yaml:"avg_spread_cycles"`

	RiskTolerance    Range `yaml:"risk_tolerance"`
	TradingFrequency Range `yaml:"trading_frequency"`
	PriceSensitivity Range `yaml:"price_sensitivity"`
	Cooldown         Range `yaml:"cooldown"`

	Strategies map[string]float64 `yaml:"strategies"`
	Bot        strategy.BotConfig `yaml:"bot"`
}

type Server struct {
	Addr          string        `yaml:"addr"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	RateLimit     time.Duration `yaml:"rate_limit"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Cycles:   1000,
		Simulation: Simulation{
			InitialPrice:           100,
			NumAgents:              20,
			InitialBalance:         10000,
			Seed:                   42,
			MaxHistory:             1000,
			MaxTradesHistory:       5000,
			SnapshotWindow:         50,
			BookDepth:              10,
			BalanceInjectionCycles: 100,
			BalanceInjectionAmount: 1000,
			AvgSpreadCycles:        50,
			RiskTolerance:          Range{0.3, 0.8},
			TradingFrequency:       Range{0.1, 0.4},
			PriceSensitivity:       Range{0.5, 1.0},
			Cooldown:               Range{0.5, 2.0},
			Strategies: map[string]float64{
				"momentum":       0.1,
				"mean_reversion": 0.1,
				"market_maker":   0.1,
				"scalper":        0.1,
				"value_investor": 0.1,
				"noise_trader":   0.5,
			},
			Bot: strategy.DefaultBotConfig(),
		},
		Server: Server{
			Addr:         ":8080",
			TickInterval: 200 * time.Millisecond,
			RateLimit:    100 * time.Millisecond,
			RedisTTL:     time.Minute,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// A strategies map in the file replaces the default distribution entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	var probe struct {
		Simulation struct {
			Strategies map[string]float64 `yaml:"strategies"`
		} `yaml:"simulation"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if probe.Simulation.Strategies != nil {
		c.Simulation.Strategies = nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Cycles < 0 {
		errs = append(errs, fmt.Errorf("cycles must not be negative, got %d", c.Cycles))
	}
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_interval must be positive, got %s", c.Server.TickInterval))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative, got %s", c.Server.RateLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (s Simulation) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	atLeast := func(name string, v, lo int) {
		if v < lo {
			errs = append(errs, fmt.Errorf("%s must be at least %d, got %d", name, lo, v))
		}
	}

	positive("initial_price", s.InitialPrice)
	positive("initial_balance", s.InitialBalance)
	atLeast("num_agents", s.NumAgents, 1)
	atLeast("max_history", s.MaxHistory, 1)
	atLeast("max_trades_history", s.MaxTradesHistory, 1)
	atLeast("snapshot_window", s.SnapshotWindow, 1)
	atLeast("book_depth", s.BookDepth, 1)

	if s.BalanceInjectionCycles < 1 || s.BalanceInjectionCycles > 10000 {
		errs = append(errs, fmt.Errorf("balance_injection_cycles must be in [1, 10000], got %d", s.BalanceInjectionCycles))
	}
	if math.IsNaN(s.BalanceInjectionAmount) || math.IsInf(s.BalanceInjectionAmount, 0) || s.BalanceInjectionAmount < 0 {
		errs = append(errs, fmt.Errorf("balance_injection_amount must not be negative, got %v", s.BalanceInjectionAmount))
	}
	if s.AvgSpreadCycles < 1 || s.AvgSpreadCycles > 1000 {
		errs = append(errs, fmt.Errorf("avg_spread_cycles must be in [1, 1000], got %d", s.AvgSpreadCycles))
	}

	for _, r := range []struct {
		name   string
		r      Range
		lo, hi float64
	}{
		{"risk_tolerance", s.RiskTolerance, 0, 1},
		{"trading_frequency", s.TradingFrequency, 0, 1},
		{"price_sensitivity", s.PriceSensitivity, 0, 1},
		{"cooldown", s.Cooldown, 0, math.Inf(1)},
	} {
		if err := r.r.within(r.lo, r.hi); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}

	if err := validateWeights(s.Strategies); err != nil {
		errs = append(errs, err)
	}
	if err := s.Bot.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return errors.New("strategies must not be empty")
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	var sum float64
	for _, name := range names {
		w := weights[name]
		if _, err := strategy.ParseKind(name); err != nil {
			errs = append(errs, err)
		}
		if math.IsNaN(w) || w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("strategy %s weight must be in [0, 1], got %v", name, w))
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("strategy weights must sum to 1.0, got %.4f", sum))
	}
	return errors.Join(errs...)
}

// Weights returns the strategy distribution indexed in strategy.Kinds order.
// Call it on a validated config only.
func (s Simulation) Weights() []float64 {
	kinds := strategy.Kinds()
	out := make([]float64, len(kinds))
	for i, k := range kinds {
		out[i] = s.Strategies[k.String()]
	}
	return out
}
