package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/cart_ledger/internal/logging"
)

const (
	EventItemAdded       = "cart_item_added"
	EventItemRemoved     = "cart_item_removed"
	EventQuantityChanged = "cart_item_quantity_changed"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type CartEvent struct {
	Type      string `json:"type"`
	UserID    uint   `json:"userID"`
	ProductID uint   `json:"productID"`
	Quantity  int    `json:"quantity"`
}

// publish runs after commit; a broker failure is logged and never undoes the mutation.
func (s *CartService) publish(ctx context.Context, event CartEvent) {
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Publisher.PublishEvent(ctx, s.Topic, fmt.Sprint(event.UserID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", s.Topic, "type", event.Type, "error", err)
	}
}
