package port

import (
	"context"

	"github.com/olyamironova/simexchange/internal/domain"
)

// SnapshotCache holds the latest published snapshot per run.
// Get returns nil, nil on a miss.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, runID string, snap *domain.SimulationSnapshot) error
	GetSnapshot(ctx context.Context, runID string) (*domain.SimulationSnapshot, error)
}
