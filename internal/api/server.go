package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"perp-exec/internal/handoff"
	"perp-exec/internal/reconcile"
	"perp-exec/pkg/db"
)

// Server exposes read-only operational endpoints: health, Prometheus
// metrics, reconciliation status, the latest target and the trade
// journal. It never mutates trading state.
type Server struct {
	Router *gin.Engine

	Strategy string
	DB       *db.Database
	Store    handoff.Store

	// StatusFunc returns the reconciliation snapshot; nil on the pure
	// signal-engine binary.
	StatusFunc func() reconcile.Status
}

func NewServer(strategy string, database *db.Database, store handoff.Store, statusFn func() reconcile.Status, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(log))
	r.Use(RateLimitMiddleware())

	s := &Server{
		Router:     r,
		Strategy:   strategy,
		DB:         database,
		Store:      store,
		StatusFunc: statusFn,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/target", s.getTarget)
		api.GET("/trades", s.getTrades)
	}
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) getStatus(c *gin.Context) {
	if s.StatusFunc == nil {
		c.JSON(http.StatusOK, gin.H{"strategy": s.Strategy, "reconcile": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategy": s.Strategy, "reconcile": s.StatusFunc()})
}

func (s *Server) getTarget(c *gin.Context) {
	tgt, err := s.Store.Latest(c.Request.Context(), s.Strategy)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"strategy":    tgt.Strategy,
		"symbol":      tgt.Symbol,
		"target":      tgt.Target,
		"computed_at": tgt.ComputedAt,
	})
}

func (s *Server) getTrades(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	trades, err := s.DB.ListTrades(c.Request.Context(), s.Strategy, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}
