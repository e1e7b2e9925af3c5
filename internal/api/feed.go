package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"maitred/internal/models"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Feed broadcasts a summary of every served prediction to connected
// websocket clients.
type Feed struct {
	mu      sync.Mutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// feedEvent is the compact wire format of one prediction.
type feedEvent struct {
	PredictionID    string  `json:"prediction_id"`
	RestaurantID    string  `json:"restaurant_id"`
	ServiceDate     string  `json:"service_date"`
	ServiceType     string  `json:"service_type"`
	PredictedCovers int     `json:"predicted_covers"`
	Confidence      float64 `json:"confidence"`
	Method          string  `json:"method"`
	Summary         string  `json:"summary"`
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{clients: make(map[*feedClient]struct{})}
}

// Handle upgrades the connection and streams prediction events until the
// client disconnects.
func (f *Feed) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[FEED] upgrade failed: %v", err)
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, 64)}

	f.mu.Lock()
	f.clients[client] = struct{}{}
	f.mu.Unlock()

	go f.writePump(client)
	go f.readPump(client)
}

// Broadcast publishes one prediction to every connected client. Slow clients
// are dropped rather than blocking the pipeline.
func (f *Feed) Broadcast(resp *models.PredictionResponse) {
	event := feedEvent{
		PredictionID:    resp.PredictionID,
		RestaurantID:    resp.RestaurantID,
		ServiceDate:     resp.ServiceDate,
		ServiceType:     string(resp.ServiceType),
		PredictedCovers: resp.PredictedCovers,
		Confidence:      resp.Confidence,
		Method:          resp.Method,
		Summary:         resp.Reasoning.Summary,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for client := range f.clients {
		select {
		case client.send <- data:
		default:
			delete(f.clients, client)
			close(client.send)
		}
	}
}

func (f *Feed) remove(client *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[client]; ok {
		delete(f.clients, client)
		close(client.send)
	}
}

func (f *Feed) writePump(client *feedClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) readPump(client *feedClient) {
	defer func() {
		f.remove(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(1024)
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
