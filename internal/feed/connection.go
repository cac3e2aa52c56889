package feed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/pkg/streaming"
)

const (
	sendChSize   = 1024
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

// connection manages a WebSocket connection with a single write goroutine.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{} // closed on shutdown
	closed bool

	// set while a reconnect loop runs
	reconnecting bool

	wsURL  string
	secret string

	// hello message replayed after a reconnect
	cachedHello []byte

	// first reconnect delay, doubled per failed attempt
	backoff time.Duration

	log zerolog.Logger
}

func newConnection(log zerolog.Logger) *connection {
	return &connection{
		sendCh:  make(chan []byte, sendChSize),
		ackCh:   make(chan streaming.AckMessage, ackChSize),
		done:    make(chan struct{}),
		backoff: time.Second,
		log:     log,
	}
}

// dial connects to the WebSocket server and starts read/write loops.
func (c *connection) dial(rawURL, secret string) error {
	c.wsURL = rawURL
	c.secret = secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)

	return nil
}

// dialOnce performs a single WebSocket dial with the secret query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.secret != "" {
		q := u.Query()
		q.Set("secret", c.secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// writeLoop drains sendCh and writes messages to own. It returns on error,
// on shutdown, or once own has been replaced by a reconnect.
func (c *connection) writeLoop(own *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()

			if current != own {
				c.send(data)
				return
			}

			if err := own.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("WebSocket SetWriteDeadline error")
				go c.reconnect(own)
				return
			}
			if err := own.WriteMessage(ws.TextMessage, data); err != nil {
				c.log.Warn().Err(err).Msg("WebSocket write error")
				go c.reconnect(own)
				return
			}
		}
	}
}

// readLoop reads ack messages from own and routes them to ackCh.
func (c *connection) readLoop(own *ws.Conn) {
	for {
		_, message, err := own.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.log.Warn().Err(err).Msg("WebSocket read error")
			go c.reconnect(own)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil {
			c.log.Debug().Str("raw", string(message)).Msg("Non-ack message received")
			continue
		}

		if ack.Type == "ack" {
			select {
			case c.ackCh <- ack:
			default:
				c.log.Debug().Str("for", ack.For).Msg("Ack channel full, dropping")
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff. On
// success it replays the cached hello and restarts the read/write loops.
// failed is the connection that broke, nil when none was ever made.
func (c *connection) reconnect(failed *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.reconnecting || c.conn != failed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	backoff := c.backoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.log.Info().Int("attempt", attempt).Dur("backoff", backoff).Msg("Reconnecting to WebSocket")
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, err := c.dialOnce()
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Reconnect dial failed")
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		cached := c.cachedHello
		c.mu.Unlock()

		if cached != nil {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("Failed to set deadline for hello replay")
				_ = conn.Close()
				continue
			}
			if err := conn.WriteMessage(ws.TextMessage, cached); err != nil {
				c.log.Warn().Err(err).Msg("Failed to replay hello after reconnect")
				_ = conn.Close()
				continue
			}
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.log.Info().Int("attempt", attempt).Msg("WebSocket reconnected")
		go c.writeLoop(conn)
		go c.readLoop(conn)
		return
	}

	c.log.Error().Int("maxAttempts", maxReconnect).Msg("WebSocket reconnect failed after max attempts")
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.log.Warn().Msg("WebSocket send channel full, dropping message")
	}
}

// sendAndWait sends data and blocks until the server acknowledges with a
// matching ack message or the timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close sends a WebSocket close frame and shuts down all goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}
