// Package event publishes storefront domain events to Kafka. Downstream
// consumers (inventory, CRM, analytics) react to cart and order activity
// without the storefront knowing about them.
package event

import (
	"context"
	"fmt"

	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/pkg/kafka"
	"github.com/renovamx/storefront/pkg/logger"
)

const source = "storefront"

// Topics per event family.
const (
	TopicCartUpdated    = "storefront.cart.updated"
	TopicCartCleared    = "storefront.cart.cleared"
	TopicOrderSubmitted = "storefront.order.submitted"
)

// Event types carried in the envelope.
const (
	TypeCartUpdated    = "cart.updated"
	TypeCartCleared    = "cart.cleared"
	TypeOrderSubmitted = "order.submitted"
)

// CartUpdatedData is the payload for cart.updated events.
type CartUpdatedData struct {
	OwnerID   string            `json:"owner_id"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
	Items     []domain.LineItem `json:"items"`
}

// OrderSubmittedData is the payload for order.submitted events.
type OrderSubmittedData struct {
	SessionID        string `json:"session_id"`
	UserID           string `json:"user_id,omitempty"`
	OrderNumber      string `json:"order_number"`
	PaymentReference string `json:"payment_reference,omitempty"`
	PaymentMethod    string `json:"payment_method"`
	Total            int64  `json:"total"`
	ItemCount        int    `json:"item_count"`
}

// Producer publishes cart and checkout events. It satisfies cart.Events and
// checkout.Events.
type Producer struct {
	producer *kafka.Producer
}

// NewProducer wraps a Kafka producer.
func NewProducer(p *kafka.Producer) *Producer {
	return &Producer{producer: p}
}

// PublishCartUpdated emits the cart's new contents, keyed by owner.
func (p *Producer) PublishCartUpdated(ctx context.Context, ownerID string, cart *domain.Cart) error {
	data := CartUpdatedData{
		OwnerID:   ownerID,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Items:     cart.Items,
	}
	return p.publish(ctx, TopicCartUpdated, TypeCartUpdated, ownerID, "cart", data)
}

// PublishCartCleared emits a cart-emptied notification.
func (p *Producer) PublishCartCleared(ctx context.Context, ownerID string) error {
	data := CartUpdatedData{OwnerID: ownerID}
	return p.publish(ctx, TopicCartCleared, TypeCartCleared, ownerID, "cart", data)
}

// PublishOrderSubmitted emits the completed checkout, keyed by session.
func (p *Producer) PublishOrderSubmitted(ctx context.Context, s *domain.CheckoutSession) error {
	if s.Order == nil {
		return fmt.Errorf("order submitted event: session %s has no order info", s.ID)
	}
	data := OrderSubmittedData{
		SessionID:        s.ID,
		UserID:           s.UserID,
		OrderNumber:      s.Order.OrderNumber,
		PaymentReference: s.Order.PaymentReference,
		PaymentMethod:    s.PaymentMethod,
		Total:            s.Order.Total,
		ItemCount:        s.Cart().ItemCount(),
	}
	return p.publish(ctx, TopicOrderSubmitted, TypeOrderSubmitted, s.ID, "checkout_session", data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}
	return p.producer.Publish(ctx, topic, evt)
}
