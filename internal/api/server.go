// Package api exposes a read-only status server for the trading engine:
// positions, trade history, equity curve and a websocket event stream.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trendbot/internal/events"
	"trendbot/internal/ledger"
	"trendbot/pkg/config"
	"trendbot/pkg/db"
)

// Server wires the HTTP endpoints around the ledger and the event bus.
type Server struct {
	Router *gin.Engine
	Bus    *events.Bus
	Store  *ledger.Store
	DB     *db.Database // optional journal
	Params config.Params
	Meta   Meta
}

// Meta describes runtime status exposed to operators.
type Meta struct {
	DryRun  bool
	Venue   string
	Symbols []string
	Started time.Time
}

// NewServer builds the router with the middleware stack and routes.
func NewServer(bus *events.Bus, store *ledger.Store, database *db.Database, params config.Params, meta Meta) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())

	s := &Server{
		Router: r,
		Bus:    bus,
		Store:  store,
		DB:     database,
		Params: params,
		Meta:   meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/positions", s.getPositions)
		api.GET("/trades", s.getTrades)
		api.GET("/equity", s.getEquity)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
