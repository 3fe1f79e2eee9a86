package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/olyamironova/simexchange/internal/config"
	"github.com/olyamironova/simexchange/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessRun(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = ""
	cfg.Cycles = 50
	cfg.Simulation.NumAgents = 12
	cfg.Simulation.Bot.Enabled = true

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, logger.Nop(), &out))
	assert.Contains(t, out.String(), "50 cycles")
	assert.Contains(t, out.String(), "bot:")
	assert.Contains(t, out.String(), "profitable")
}

func TestHeadlessRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = ""
	cfg.Simulation.InitialPrice = -1

	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), cfg, logger.Nop(), &out), config.ErrInvalidConfig)
}
