package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/bakehouse/services/orders/config"
	"example.com/bakehouse/services/orders/internal/models"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Order lifecycle event types carried over the queue.
const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderDelivered = "order.delivered"
	EventOrderReverted  = "order.reverted"
	EventOrderDeleted   = "order.deleted"
)

// OrderEvent is published after each store mutation so the worker can keep
// the search index and cached snapshots current.
type OrderEvent struct {
	Type    string        `json:"type"`
	OrderID uuid.UUID     `json:"order_id"`
	Order   *models.Order `json:"order,omitempty"`
	At      time.Time     `json:"at"`
}

// EventPublisher publishes order lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// ServiceBusClient sends and receives order events over Azure Service Bus.
type ServiceBusClient struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.AzureConfig) (*ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBusClient{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// Publish sends one order event to the queue.
func (s *ServiceBusClient) Publish(ctx context.Context, event OrderEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order event")
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"type": event.Type,
			"time": event.At.Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// EventHandler processes one received order event.
type EventHandler func(ctx context.Context, event OrderEvent) error

// ProcessEvents receives order events until the context is cancelled,
// completing handled messages and abandoning failed ones for redelivery.
func (s *ServiceBusClient) ProcessEvents(ctx context.Context, handler EventHandler) error {
	receiver, err := s.client.NewReceiverForQueue(s.queueName, &azservicebus.ReceiverOptions{
		ReceiveMode: azservicebus.ReceiveModePeekLock,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer receiver.Close(context.Background())

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("Failed to receive order events, retrying")
			continue
		}

		for _, msg := range messages {
			var event OrderEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				// A malformed message will never parse; drop it.
				log.Error().Err(err).Msg("Discarding unparseable order event")
				_ = receiver.DeadLetterMessage(ctx, msg, nil)
				continue
			}

			if err := handler(ctx, event); err != nil {
				log.Error().Err(err).
					Str("type", event.Type).
					Str("order_id", event.OrderID.String()).
					Msg("Failed to process order event")
				_ = receiver.AbandonMessage(ctx, msg, nil)
				continue
			}

			if err := receiver.CompleteMessage(ctx, msg, nil); err != nil {
				log.Warn().Err(err).Msg("Failed to complete order event message")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *ServiceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// NoopPublisher drops events. Used when no queue is configured; store writes
// must never depend on the event path.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }
