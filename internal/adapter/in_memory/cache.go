package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/port"
)

type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.SimulationSnapshot
}

var _ port.SnapshotCache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.SimulationSnapshot)}
}

func (c *Cache) SetSnapshot(ctx context.Context, runID string, snap *domain.SimulationSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[runID] = snap.Clone()
	return nil
}

func (c *Cache) GetSnapshot(ctx context.Context, runID string) (*domain.SimulationSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[runID]
	if !ok {
		return nil, nil
	}
	return snap.Clone(), nil
}
