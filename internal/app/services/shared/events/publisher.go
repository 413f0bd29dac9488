package events

import (
	"context"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type scribeStatusEvent struct {
	ScribeID   string `json:"scribe_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type rabbitPublisher struct {
	channel *amqp091.Channel
	queue   string
	log     *zap.Logger
}

// NewRabbitPublisher declares the status queue and returns a publisher bound
// to it. Consumers (EMR sync, notification workers) read from the same queue.
func NewRabbitPublisher(conn *amqp091.Connection, log *zap.Logger) (contracts.EventPublisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	_, err = channel.QueueDeclare(constvars.ScribeStatusQueueName, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &rabbitPublisher{
		channel: channel,
		queue:   constvars.ScribeStatusQueueName,
		log:     log,
	}, nil
}

func (p *rabbitPublisher) PublishStatus(ctx context.Context, scribeID string, status models.ScribeStatus, reason string) error {
	body, err := json.Marshal(scribeStatusEvent{
		ScribeID:   scribeID,
		Status:     string(status),
		Reason:     reason,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	headers := amqp091.Table{
		"message_type":     "JSON",
		"requeue_strategy": "DROP",
	}
	message := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Headers:      headers,
	}

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, message); err != nil {
		p.log.Warn(constvars.ErrDevPublishEvent,
			zap.String("scribe_id", scribeID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
