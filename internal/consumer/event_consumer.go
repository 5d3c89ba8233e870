package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/config"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/rabbitmq"
)

const (
	deliveryExchange   = "mindtrain"
	deliveryQueue      = "mindtrain_delivery_outcomes"
	deliveryRoutingKey = "mindtrain.delivery.*"
	consumerTag        = "mindtrain-outcome-consumer"
)

// OutcomeConsumer consumes delivery outcome events reported back by the
// external push dispatcher and merges them into the notification log.
type OutcomeConsumer struct {
	client  *rabbitmq.RabbitMQClient
	service *service.LogService
	retry   config.RetryConfig
	log     *logger.Logger
}

// NewOutcomeConsumer creates a new delivery outcome consumer
func NewOutcomeConsumer(client *rabbitmq.RabbitMQClient, service *service.LogService, retry config.RetryConfig, log *logger.Logger) *OutcomeConsumer {
	return &OutcomeConsumer{
		client:  client,
		service: service,
		retry:   retry,
		log:     log,
	}
}

// Start declares the broker topology and consumes until the channel closes
func (c *OutcomeConsumer) Start() error {
	c.log.Info("Starting outcome consumer", "queue", deliveryQueue)

	if err := c.client.DeclareExchange(deliveryExchange, "topic"); err != nil {
		c.log.Error("Failed to declare exchange", "error", err)
		return err
	}
	if err := c.client.DeclareQueue(deliveryQueue); err != nil {
		c.log.Error("Failed to declare queue", "error", err)
		return err
	}
	if err := c.client.BindQueue(deliveryQueue, deliveryRoutingKey, deliveryExchange); err != nil {
		c.log.Error("Failed to bind queue", "error", err)
		return err
	}

	messages, err := c.client.Consume(deliveryQueue, consumerTag)
	if err != nil {
		c.log.Error("Failed to start consuming", "error", err)
		return err
	}

	for msg := range messages {
		c.handle(msg)
	}
	return nil
}

func (c *OutcomeConsumer) handle(msg rabbitmq.Message) {
	var event domain.DeliveryOutcomeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Error("Failed to unmarshal outcome event", "error", err, "routing_key", msg.RoutingKey)
		msg.Nack(false, false) // Don't requeue invalid messages
		return
	}
	if event.NotificationID == "" || event.Status == "" {
		c.log.Error("Outcome event missing notificationId or status", "event_id", event.EventID)
		msg.Nack(false, false)
		return
	}

	update := outcomeUpdate(&event)

	ctx := context.Background()
	if err := c.apply(ctx, event.NotificationID, update); err != nil {
		if apperrors.IsRetryable(err) {
			c.log.Error("Transient failure applying outcome, requeueing", "error", err, "notification_id", event.NotificationID)
			msg.Nack(false, true)
			return
		}
		c.log.Error("Failed to apply outcome", "error", err, "notification_id", event.NotificationID)
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
}

// apply retries transient store failures before giving up and letting
// the broker redeliver
func (c *OutcomeConsumer) apply(ctx context.Context, notificationID string, update *domain.NotificationLogUpdate) error {
	var err error
	for attempt := 0; attempt < c.retry.Attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.retry.Delay)
		}

		var found bool
		_, found, err = c.service.UpdateNotificationLog(ctx, notificationID, update)
		if err == nil {
			if !found {
				c.log.Debug("Outcome for rotated-out notification dropped", "notification_id", notificationID)
			}
			return nil
		}
		if !apperrors.IsRetryable(err) {
			return err
		}
	}
	return err
}

func outcomeUpdate(event *domain.DeliveryOutcomeEvent) *domain.NotificationLogUpdate {
	update := &domain.NotificationLogUpdate{
		Status:      &event.Status,
		SentAt:      event.SentAt,
		DeliveredAt: event.DeliveredAt,
		OpenedAt:    event.OpenedAt,
	}
	if event.Error != "" {
		update.DeliveryError = &event.Error
	}
	if event.Retries > 0 {
		update.DeliveryRetries = &event.Retries
	}
	return update
}
