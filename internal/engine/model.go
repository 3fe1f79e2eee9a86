package engine

import (
	"errors"

	"github.com/olyamironova/simexchange/internal/domain"
)

var (
	ErrInvalidSetting = errors.New("invalid setting")
	ErrRunning        = errors.New("simulation loop already running")
	ErrNotRunning     = errors.New("simulation loop not running")
)

const (
	MinInjectionCycles = 1
	MaxInjectionCycles = 10000
	MinAvgSpreadCycles = 1
	MaxAvgSpreadCycles = 1000

	// snapshotHistoryPoints bounds the histories copied into a SimulationSnapshot.
	snapshotHistoryPoints = 50
	reportTrades          = 20
)

// CycleReport summarises a batch of cycles run through the Runner.
type CycleReport struct {
	Cycles     int            `json:"cycles"`
	Cycle      int64          `json:"cycle"`
	Trades     int            `json:"trades"`
	Volume     int64          `json:"volume"`
	LastTrades []domain.Trade `json:"last_trades"`
}

func (r *CycleReport) add(trades []domain.Trade) {
	r.Cycles++
	r.Trades += len(trades)
	for _, t := range trades {
		r.Volume += t.Quantity
	}
	r.LastTrades = append(r.LastTrades, trades...)
	if n := len(r.LastTrades); n > reportTrades {
		r.LastTrades = append([]domain.Trade(nil), r.LastTrades[n-reportTrades:]...)
	}
}
