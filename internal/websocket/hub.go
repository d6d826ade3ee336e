package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nikotrade/backend/internal/domain"
)

// MessageType marks what a frame carries.
type MessageType string

const (
	MessageTypeInquiryCreated MessageType = "inquiry_created"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
)

// Message is the frame sent to dashboard clients.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// InquiryCreatedData is the event payload. The endpoint is unauthenticated,
// so the payload carries no email address and no inquiry text.
type InquiryCreatedData struct {
	InquiryID   string `json:"inquiryId"`
	Title       string `json:"title"`
	ProductSlug string `json:"productSlug,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// Client is one connected dashboard.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans inquiry events out to connected dashboard clients.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewHub creates a hub restricted to the given origins. An empty list allows
// every origin, which is only acceptable in development.
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return allowed[origin]
			},
		},
	}
}

// Run owns the client set until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.log.Debug("websocket client registered", zap.String("id", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ticker.C:
			h.fanOut(&Message{Type: MessageTypePing, Timestamp: time.Now()})
		}
	}
}

// NotifyInquiryCreated broadcasts a new-inquiry event. Drops the event when
// the broadcast queue is full; dashboards are best effort.
func (h *Hub) NotifyInquiryCreated(inquiry *domain.Inquiry) {
	data, err := json.Marshal(InquiryCreatedData{
		InquiryID:   inquiry.ID,
		Title:       inquiry.Title,
		ProductSlug: inquiry.ProductSlug,
		CreatedAt:   inquiry.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		h.log.Error("failed to marshal inquiry event", zap.Error(err))
		return
	}

	msg := &Message{
		Type:      MessageTypeInquiryCreated,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("websocket broadcast queue full, dropping event")
	}
}

func (h *Hub) fanOut(msg *Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal websocket frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; the write pump will notice the closed socket.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, id)
	}
}

// HandleConnection upgrades a request and attaches the client to the hub.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 16),
		hub:  h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
			pong, _ := json.Marshal(Message{Type: MessageTypePong, Timestamp: time.Now()})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
