package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"math-log-server/models"
)

// DefaultStreamName is the topic operation events are appended to.
const DefaultStreamName = "math_operations"

// Publisher appends operation events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event models.StreamEvent) error
}

type StreamService struct {
	client *redis.Client
	stream string
}

func NewStreamService(client *redis.Client, stream string) *StreamService {
	if stream == "" {
		stream = DefaultStreamName
	}
	return &StreamService{client: client, stream: stream}
}

// NewRedisClient builds the shared, long-lived client used by the publisher
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Publish appends the event with XADD under an auto-generated id
func (s *StreamService) Publish(ctx context.Context, event models.StreamEvent) error {
	return capture(ctx, "Redis.XAdd", func(ctx context.Context) error {
		err := s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: event.Values(),
		}).Err()

		annotate(ctx, "redis.stream", s.stream)
		annotate(ctx, "redis.operation", "XADD")

		if err != nil {
			return fmt.Errorf("xadd %s: %w", s.stream, err)
		}
		return nil
	})
}

// Ping checks Redis connection
func (s *StreamService) Ping(ctx context.Context) error {
	return capture(ctx, "Redis.Ping", func(ctx context.Context) error {
		annotate(ctx, "redis.operation", "PING")
		return s.client.Ping(ctx).Err()
	})
}

func (s *StreamService) Close() error {
	return s.client.Close()
}

// NopPublisher drops every event. Used when the stream is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.StreamEvent) error { return nil }
