package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitsymphony/internal/state"

	"github.com/nats-io/nats.go"
)

// AuditEvent is the wire form of one audit entry on the bus.
type AuditEvent struct {
	UserID string         `json:"user_id"`
	Entry  state.LogEntry `json:"entry"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSBus forwards audit entries to a NATS core subject.
type NATSBus struct {
	nc      *nats.Conn
	pub     publisher
	subject string
}

type NATSConfig struct {
	URL     string
	Subject string
}

func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("fitsymphony-audit"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "fitsymphony.audit"
	}
	return &NATSBus{nc: nc, pub: nc, subject: subject}, nil
}

func (b *NATSBus) Subject() string {
	return b.subject
}

// Publish implements audit.Sink.
func (b *NATSBus) Publish(ctx context.Context, userID string, entry state.LogEntry) error {
	if userID == "" || entry.ID == "" {
		return fmt.Errorf("invalid event: missing required fields")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(AuditEvent{UserID: userID, Entry: entry})
	if err != nil {
		return err
	}
	return b.pub.Publish(b.subject, data)
}

// Subscribe calls handler for every audit event until ctx is done.
func (b *NATSBus) Subscribe(ctx context.Context, handler func(AuditEvent)) (*nats.Subscription, error) {
	if b.nc == nil {
		return nil, fmt.Errorf("not connected")
	}
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		var evt AuditEvent
		if err := json.Unmarshal(msg.Data, &evt); err == nil {
			handler(evt)
		}
	})
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return sub, nil
}

func (b *NATSBus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}
