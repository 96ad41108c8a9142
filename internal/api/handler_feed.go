package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"parkwatch-backend/internal/metrics"
	"parkwatch-backend/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Guard stations talk to their own backend; cross-origin UIs are
		// expected and filtered upstream if needed.
		return true
	},
}

const (
	feedWriteWait = 10 * time.Second
	feedPongWait  = 60 * time.Second
	feedPingEvery = 30 * time.Second
)

// ActivityFeed handles GET /api/activities/feed, bridging the activity
// log's subscription to a WebSocket. Each newly accepted event is pushed as
// one JSON message, in accept order. Clients wanting history should pair
// this with an initial GET /api/activities snapshot.
func (h *Handler) ActivityFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Feed upgrade failed: %v", err)
		return
	}

	// Slow consumers get their buffer dropped rather than stalling the
	// dispatcher; they can resynchronize via the snapshot endpoint.
	send := make(chan model.ActivityEvent, 64)
	sub := h.activity.Subscribe(func(event model.ActivityEvent) {
		select {
		case send <- event:
		default:
		}
	})
	metrics.FeedSubscribers.Inc()

	go feedWritePump(conn, send)
	feedReadPump(conn)

	// Unsubscribe waits out any in-flight dispatch, so closing send after
	// it returns is safe.
	sub.Unsubscribe()
	metrics.FeedSubscribers.Dec()
	close(send)
}

// feedReadPump consumes (and discards) client messages until the connection
// drops, keeping pong handling alive.
func feedReadPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(feedPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Feed read error: %v", err)
			}
			return
		}
	}
}

// feedWritePump forwards events to the client and keeps the connection
// alive with pings.
func feedWritePump(conn *websocket.Conn, send <-chan model.ActivityEvent) {
	ticker := time.NewTicker(feedPingEvery)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
