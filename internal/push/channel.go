// Package push implements the websocket push channel the server uses to
// deliver events without polling. Events are JSON envelopes of the form
// {"event": name, "data": payload}.
package push

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Inbound and outbound event names.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
	EventSendMessage = "sendMessage"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives the raw payload of a single event delivery. Handlers run
// sequentially on the channel's reader goroutine.
type Handler func(data json.RawMessage)

// Subscription identifies one registered handler. Cancel removes exactly
// that handler; cancelling twice or cancelling the zero value is a no-op.
type Subscription struct {
	ch    *Channel
	event string
	id    uint64
}

func (s Subscription) Cancel() {
	if s.ch == nil {
		return
	}
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if handlers, ok := s.ch.handlers[s.event]; ok {
		delete(handlers, s.id)
	}
}

// Channel is a live push connection tied to one user id.
type Channel struct {
	conn   *websocket.Conn
	userID string
	log    zerolog.Logger

	mu       sync.Mutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	closed   bool

	writeMu sync.Mutex
	done    chan struct{}
}

// Dial connects the push channel for the given user id. The server routes
// identity-scoped events by the userId query parameter.
func Dial(ctx context.Context, wsURL, userID string, logger zerolog.Logger) (*Channel, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &Channel{
		conn:     conn,
		userID:   userID,
		log:      logger.With().Str("component", "push").Str("user", userID).Logger(),
		handlers: make(map[string]map[uint64]Handler),
		done:     make(chan struct{}),
	}

	go c.readLoop()
	go c.pingLoop()

	c.log.Debug().Str("url", u.String()).Msg("channel connected")
	return c, nil
}

// UserID returns the identity the channel was opened for.
func (c *Channel) UserID() string {
	return c.userID
}

// IsOpen reports whether the channel is still live.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// On registers a handler for an event and returns its subscription token.
func (c *Channel) On(event string, handler Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = handler
	return Subscription{ch: c, event: event, id: id}
}

// Emit marshals v and sends it as an event to the server.
func (c *Channel) Emit(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(envelope{Event: event, Data: data})
}

// Close tears the connection down. Safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.log.Debug().Msg("channel closed")
	return err
}

func (c *Channel) readLoop() {
	defer c.Close()
	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsOpen() {
				c.log.Debug().Err(err).Msg("read message")
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			c.log.Debug().Err(err).Msg("malformed event")
			continue
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env envelope) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers[env.Event]))
	for _, h := range c.handlers[env.Event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(env.Data)
	}
}

func (c *Channel) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
