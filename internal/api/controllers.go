package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dry_run":        s.Meta.DryRun,
		"venue":          s.Meta.Venue,
		"symbols":        s.Meta.Symbols,
		"interval":       s.Params.Interval,
		"cycle_seconds":  s.Params.CycleSeconds,
		"uptime_seconds": int(time.Since(s.Meta.Started).Seconds()),
	})
}

func (s *Server) getPositions(c *gin.Context) {
	snap, err := s.Store.Load(s.Params.Symbols)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": snap.Positions})
}

func (s *Server) getTrades(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	// The journal holds the full audit trail; without one, fall back to the
	// snapshot's history.
	if s.DB != nil {
		trades, err := s.DB.ListTrades(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trades": trades, "source": "journal"})
		return
	}

	snap, err := s.Store.Load(s.Params.Symbols)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	trades := snap.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "source": "snapshot"})
}

func (s *Server) getEquity(c *gin.Context) {
	snap, err := s.Store.Load(s.Params.Symbols)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := gin.H{"equity": snap.Equity}
	now := time.Now().UTC()
	if pct, ok := snap.EquityChangeSince(now, 24*time.Hour); ok {
		out["change_24h_pct"] = pct
	}
	if pct, ok := snap.EquityChangeSince(now, 7*24*time.Hour); ok {
		out["change_7d_pct"] = pct
	}
	c.JSON(http.StatusOK, out)
}
