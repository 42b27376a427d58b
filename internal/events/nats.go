package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hsrini/wellness/internal/domain"
)

// NATSPublisher publishes order events to a NATS server.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) OrderPlaced(ctx context.Context, cart *domain.Cart) error {
	return p.publish(SubjectOrderPlaced, newOrderEvent(cart))
}

func (p *NATSPublisher) OrderShipped(ctx context.Context, cart *domain.Cart) error {
	return p.publish(SubjectOrderShipped, newOrderEvent(cart))
}

func (p *NATSPublisher) publish(subject string, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s failed: %w", subject, err)
	}

	return nil
}
