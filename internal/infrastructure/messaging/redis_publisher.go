package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const streamMaxLen = 100000

func streamKey(eventType string) string {
	return fmt.Sprintf("events:%s", eventType)
}

type RedisEventPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisEventPublisher(client *redis.Client, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		client: client,
		logger: logger,
	}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	key := streamKey(event.GetEventType())

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: key,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":     event.GetEventID(),
			"event_type":   event.GetEventType(),
			"aggregate_id": event.GetAggregateID(),
			"occurred_at":  event.GetOccurredAt().Unix(),
			"data":         string(eventData),
		},
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Error("failed to publish event",
			zap.Error(err),
			zap.String("event_type", event.GetEventType()),
			zap.String("event_id", event.GetEventID()),
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("event_type", event.GetEventType()),
		zap.String("event_id", event.GetEventID()),
		zap.String("stream", key),
	)

	return nil
}

// StreamNotifier hands notification requests to the worker through the
// event stream. A request counts as delivered once it is on the stream.
type StreamNotifier struct {
	publisher domain.EventPublisher
}

func NewStreamNotifier(publisher domain.EventPublisher) *StreamNotifier {
	return &StreamNotifier{publisher: publisher}
}

func (n *StreamNotifier) Notify(ctx context.Context, req domain.NotificationRequest) (bool, error) {
	if err := n.publisher.Publish(ctx, domain.NewNotificationRequestedEvent(req)); err != nil {
		return false, err
	}
	return true, nil
}
