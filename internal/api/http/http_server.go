package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/simexchange/internal/api/dto"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/engine"
	"github.com/olyamironova/simexchange/internal/middleware"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultDepth = 10
	maxDepth     = 100

	defaultTradeLimit = 50
	maxTradeLimit     = 1000
)

type HTTPServer struct {
	Runner       *engine.Runner
	TickInterval time.Duration
	RateLimit    time.Duration
	log          *zap.SugaredLogger

	// loopCtx outlives individual requests so /run/start keeps ticking.
	loopCtx context.Context
}

func NewHTTPServer(ctx context.Context, runner *engine.Runner, tick, rateLimit time.Duration, log *zap.SugaredLogger) *HTTPServer {
	return &HTTPServer{Runner: runner, TickInterval: tick, RateLimit: rateLimit, log: log, loopCtx: ctx}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/snapshot", s.getSnapshot)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/trades", s.getTrades)
	r.GET("/run", s.runState)

	// mutating routes are rate-limited per client
	rl := middleware.NewRateLimiter(s.RateLimit)
	cmd := r.Group("/", rl.Middleware())
	cmd.POST("/cycles", s.runCycles)
	cmd.POST("/run/start", s.startLoop)
	cmd.POST("/run/stop", s.stopLoop)
	cmd.POST("/reset", s.reset)
	cmd.PUT("/settings/balance-injection", s.setBalanceInjection)
	cmd.PUT("/settings/avg-spread", s.setAvgSpread)
	cmd.PUT("/bot/enabled", s.setBotEnabled)
	cmd.PATCH("/bot/config", s.updateBotConfig)

	return r
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}

func (s *HTTPServer) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.Runner.Snapshot(c.Request.Context()))
}

func (s *HTTPServer) getOrderbook(c *gin.Context) {
	depth := defaultDepth
	if raw := c.Query("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > maxDepth {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer in [1, 100]"})
			return
		}
		depth = d
	}
	levels := s.Runner.Levels(depth)
	c.JSON(http.StatusOK, dto.OrderbookResponse{Depth: depth, Bids: levels.Bids, Asks: levels.Asks})
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	limit := defaultTradeLimit
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 || l > maxTradeLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer in [1, 1000]"})
			return
		}
		limit = l
	}
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: convertTrades(s.Runner.Trades(limit))})
}

func (s *HTTPServer) runState(c *gin.Context) {
	snap := s.Runner.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, dto.RunStateResponse{Running: s.Runner.Running(), Cycle: snap.Cycle})
}

func (s *HTTPServer) runCycles(c *gin.Context) {
	var req dto.RunCyclesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := s.Runner.RunCycles(c.Request.Context(), req.Count)
	resp := dto.RunCyclesResponse{
		Cycles:     report.Cycles,
		Cycle:      report.Cycle,
		Trades:     report.Trades,
		Volume:     report.Volume,
		LastTrades: convertTrades(report.LastTrades),
	}
	if err != nil {
		resp.Message = "interrupted: " + err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) startLoop(c *gin.Context) {
	var req dto.StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	interval := s.TickInterval
	if req.IntervalMs > 0 {
		interval = time.Duration(req.IntervalMs) * time.Millisecond
	}
	if err := s.Runner.Start(s.loopCtx, interval); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RunStateResponse{Running: true, Cycle: s.Runner.Snapshot(c.Request.Context()).Cycle})
}

func (s *HTTPServer) stopLoop(c *gin.Context) {
	if err := s.Runner.Stop(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RunStateResponse{Running: false, Cycle: s.Runner.Snapshot(c.Request.Context()).Cycle})
}

func (s *HTTPServer) reset(c *gin.Context) {
	s.Runner.Reset(c.Request.Context())
	c.JSON(http.StatusOK, s.Runner.Snapshot(c.Request.Context()))
}

func (s *HTTPServer) setBalanceInjection(c *gin.Context) {
	var req dto.BalanceInjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Runner.SetBalanceInjectionSettings(c.Request.Context(), req.Cycles, req.Amount.InexactFloat64()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Runner.Snapshot(c.Request.Context()).BalanceInjection)
}

func (s *HTTPServer) setAvgSpread(c *gin.Context) {
	var req dto.AvgSpreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Runner.SetAvgSpreadCycles(c.Request.Context(), req.Cycles); err != nil {
		writeError(c, err)
		return
	}
	snap := s.Runner.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"avg_spread_cycles": snap.AvgSpreadCycles, "avg_spread": snap.AvgSpread})
}

func (s *HTTPServer) setBotEnabled(c *gin.Context) {
	var req dto.BotEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Runner.SetBotEnabled(c.Request.Context(), *req.Enabled)
	c.JSON(http.StatusOK, s.Runner.Snapshot(c.Request.Context()).Bot)
}

func (s *HTTPServer) updateBotConfig(c *gin.Context) {
	var req strategy.BotConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := s.Runner.UpdateBotConfig(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BotConfigResponse{Config: cfg})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidSetting), errors.Is(err, strategy.ErrInvalidBotConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrRunning), errors.Is(err, engine.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func convertTrades(trades []domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			ID:        t.ID,
			Price:     decimal.NewFromFloat(t.Price),
			Quantity:  t.Quantity,
			BuyerID:   t.BuyerID,
			SellerID:  t.SellerID,
			Timestamp: t.Timestamp,
		}
	}
	return res
}
