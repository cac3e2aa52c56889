// Package feed streams live canvas state to a renderer over a WebSocket.
// Publishing never blocks: messages are queued for a single writer and
// dropped when the queue is full or the feed is disabled.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/pkg/streaming"
)

// Update is one message for the feed.
type Update struct {
	Type    string
	Payload any
}

// Publisher sends updates to the feed server.
type Publisher struct {
	cfg  config.FeedConfig
	conn *connection
	log  zerolog.Logger
}

// New creates a Publisher. Nothing is dialed until Start.
func New(cfg config.FeedConfig, log zerolog.Logger) *Publisher {
	log = log.With().Str("component", "feed").Logger()
	return &Publisher{
		cfg:  cfg,
		conn: newConnection(log),
		log:  log,
	}
}

// Enabled reports whether the feed is configured on.
func (p *Publisher) Enabled() bool {
	return p != nil && p.cfg.Enabled
}

// Start connects to the server. If the first dial fails the publisher keeps
// retrying in the background and the error is returned for logging.
func (p *Publisher) Start() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.conn.dial(p.cfg.URL, p.cfg.Secret); err != nil {
		go p.conn.reconnect(nil)
		return err
	}
	p.log.Info().Str("url", p.cfg.URL).Msg("feed connected")
	return nil
}

// Close disconnects from the server.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Publish queues u for sending (fire-and-forget).
func (p *Publisher) Publish(u Update) {
	if !p.Enabled() {
		return
	}
	data, err := marshalEnvelope(u.Type, u.Payload)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode update")
		return
	}
	p.conn.send(data)
}

// Hello introduces this client and waits for the server ack. The message is
// replayed automatically after every reconnect.
func (p *Publisher) Hello(h streaming.HelloPayload) error {
	if !p.Enabled() {
		return nil
	}
	data, err := marshalEnvelope(streaming.TypeHello, h)
	if err != nil {
		return err
	}

	p.conn.mu.Lock()
	p.conn.cachedHello = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

// Goodbye tells the server this client is leaving and waits for the ack.
func (p *Publisher) Goodbye() error {
	if !p.Enabled() {
		return nil
	}
	data, err := marshalEnvelope(streaming.TypeGoodbye, nil)
	if err != nil {
		return err
	}
	err = p.conn.sendAndWait(data, streaming.TypeGoodbye, ackTimeout)

	p.conn.mu.Lock()
	p.conn.cachedHello = nil
	p.conn.mu.Unlock()

	return err
}
