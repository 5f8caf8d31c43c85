// Package events publishes cart lifecycle events over NATS.
//
// Events are advisory. Downstream consumers (recommendations, analytics)
// react to them, but a publish failure never fails the cart operation that
// produced it; callers log and move on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for cart events.
const (
	SubjectCartMerged = "cart.merged"
	SubjectItemAdded  = "cart.item_added"
)

// CartMerged is emitted after a guest cart has been folded into a durable cart.
type CartMerged struct {
	OwnerID   string    `json:"ownerId"`
	CartID    int64     `json:"cartId"`
	ItemCount int       `json:"itemCount"`
	MergedAt  time.Time `json:"mergedAt"`
}

// ItemAdded is emitted when a line is added to a durable cart.
type ItemAdded struct {
	CartID   int64     `json:"cartId"`
	BookID   int64     `json:"bookId"`
	Quantity int64     `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// Publisher sends cart events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close()
}

// NATSPublisher implements Publisher on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() {
	p.conn.Drain()
}

// Noop is the publisher used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, subject string, event any) error { return nil }
func (Noop) Close()                                                       {}
