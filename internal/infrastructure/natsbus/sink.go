package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"EventRadar/internal/domain"
	"EventRadar/internal/ports"
)

// DefaultSubjectPrefix is used when none is configured.
const DefaultSubjectPrefix = "eventradar.notify"

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Sink publishes intents as JSON to <prefix>.<category>.
type Sink struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn
}

var _ ports.Sink = (*Sink)(nil)

// Connect dials url with unlimited reconnects.
func Connect(url, prefix string, opts ...nats.Option) (*Sink, error) {
	defaults := []nats.Option{
		nats.Name("eventradar"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	s := NewSink(nc, prefix)
	s.conn = nc
	return s, nil
}

// NewSink wraps an existing publisher.
func NewSink(pub Publisher, prefix string) *Sink {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Sink{pub: pub, prefix: prefix}
}

// Subject returns the subject an intent of category c is published on.
func (s *Sink) Subject(c domain.Category) string {
	return s.prefix + "." + string(c)
}

// Deliver publishes the intent.
func (s *Sink) Deliver(ctx context.Context, intent domain.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshaling intent: %w", err)
	}
	if err := s.pub.Publish(s.Subject(intent.Category), data); err != nil {
		return fmt.Errorf("publishing %s: %w", intent.OccurrenceID, err)
	}
	return nil
}

// Close drains the connection opened by Connect.
func (s *Sink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
