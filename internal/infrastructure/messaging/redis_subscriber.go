package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultConsumerGroup is the group notification workers read with.
const DefaultConsumerGroup = "loan-notifiers"

type decoder func(data []byte) (domain.DomainEvent, error)

var decoders = map[string]decoder{
	domain.EventTypeNotificationRequested: func(data []byte) (domain.DomainEvent, error) {
		var e domain.NotificationRequestedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	},
}

type RedisEventSubscriber struct {
	client       *redis.Client
	logger       *zap.Logger
	handlers     map[string]domain.EventHandler
	consumerName string
	groupName    string
	block        time.Duration
}

func NewRedisEventSubscriber(client *redis.Client, logger *zap.Logger, groupName, consumerName string) *RedisEventSubscriber {
	if groupName == "" {
		groupName = DefaultConsumerGroup
	}
	return &RedisEventSubscriber{
		client:       client,
		logger:       logger,
		handlers:     make(map[string]domain.EventHandler),
		consumerName: consumerName,
		groupName:    groupName,
		block:        time.Second,
	}
}

func (s *RedisEventSubscriber) Subscribe(ctx context.Context, eventType string, handler domain.EventHandler) error {
	if _, ok := decoders[eventType]; !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	s.handlers[eventType] = handler

	key := streamKey(eventType)

	err := s.client.XGroupCreateMkStream(ctx, key, s.groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.logger.Info("subscribed to event",
		zap.String("event_type", eventType),
		zap.String("stream", key),
		zap.String("group", s.groupName),
	)

	return nil
}

func (s *RedisEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting event subscriber",
		zap.String("consumer", s.consumerName),
		zap.String("group", s.groupName),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping event subscriber")
			return nil
		default:
			if err := s.processEvents(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("error processing events", zap.Error(err))
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// processEvents reads one batch per subscribed stream. Messages whose handler
// fails stay pending for the group and are not acknowledged.
func (s *RedisEventSubscriber) processEvents(ctx context.Context) error {
	for eventType := range s.handlers {
		key := streamKey(eventType)

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.groupName,
			Consumer: s.consumerName,
			Streams:  []string{key, ">"},
			Count:    10,
			Block:    s.block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				if err := s.handleMessage(ctx, eventType, message); err != nil {
					s.logger.Error("failed to handle message",
						zap.Error(err),
						zap.String("message_id", message.ID),
						zap.String("stream", key),
					)
					continue
				}

				if err := s.client.XAck(ctx, key, s.groupName, message.ID).Err(); err != nil {
					s.logger.Warn("failed to ack message", zap.Error(err), zap.String("message_id", message.ID))
				}
			}
		}
	}

	return nil
}

func (s *RedisEventSubscriber) handleMessage(ctx context.Context, eventType string, message redis.XMessage) error {
	handler, exists := s.handlers[eventType]
	if !exists {
		return fmt.Errorf("no handler for event type: %s", eventType)
	}

	eventData, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid event data format")
	}

	decode, ok := decoders[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	event, err := decode([]byte(eventData))
	if err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return handler(ctx, event)
}
