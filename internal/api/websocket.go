package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"trendbot/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEnvelope tags every streamed payload with its topic.
type wsEnvelope struct {
	Event   events.Event `json:"event"`
	Payload any          `json:"payload"`
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("api: ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	trades, unsubTrades := s.Bus.Subscribe(events.EventTradeExecuted, 100)
	defer unsubTrades()
	alerts, unsubAlerts := s.Bus.Subscribe(events.EventProximityAlert, 100)
	defer unsubAlerts()
	summaries, unsubSummaries := s.Bus.Subscribe(events.EventCycleSummary, 10)
	defer unsubSummaries()

	write := func(event events.Event, payload any) bool {
		if err := conn.WriteJSON(wsEnvelope{Event: event, Payload: payload}); err != nil {
			log.Printf("api: ws write error: %v", err)
			return false
		}
		return true
	}

	for {
		select {
		case p, ok := <-trades:
			if !ok || !write(events.EventTradeExecuted, p) {
				return
			}
		case p, ok := <-alerts:
			if !ok || !write(events.EventProximityAlert, p) {
				return
			}
		case p, ok := <-summaries:
			if !ok || !write(events.EventCycleSummary, p) {
				return
			}
		}
	}
}
