package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"math-log-server/config"
	"math-log-server/models"
	"math-log-server/services"
)

const (
	readBlock = 5 * time.Second
	readCount = 50
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log)

	rdb := services.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "addr", cfg.Redis.Addr(), "error", err)
		os.Exit(1)
	}

	c := &consumer{
		rdb:    rdb,
		stream: cfg.Stream.Name,
		group:  cfg.Stream.ConsumerGroup,
		name:   "consumer-" + uuid.New().String(),
		handle: func(id string, event models.StreamEvent) error {
			logger.Info("operation event",
				"id", id,
				"operation", event.Operation,
				"input", event.Input,
				"result", event.Result,
			)
			return nil
		},
	}

	if err := c.ensureGroup(ctx); err != nil {
		logger.Error("failed to create consumer group", "group", c.group, "error", err)
		os.Exit(1)
	}
	logger.Info("stream consumer started", "stream", c.stream, "group", c.group, "consumer", c.name)

	c.run(ctx)
	logger.Info("stream consumer stopped")
}

type consumer struct {
	rdb    *redis.Client
	stream string
	group  string
	name   string
	handle func(id string, event models.StreamEvent) error
}

// ensureGroup creates the consumer group (and the stream) if missing. A new
// group starts at the head of the stream, so events published before the
// worker first ran are delivered too.
func (c *consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *consumer) run(ctx context.Context) {
	for ctx.Err() == nil {
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{c.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			slog.Error("error reading from stream", "stream", c.stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

// process hands one message to the handler and acks it on success
func (c *consumer) process(ctx context.Context, msg redis.XMessage) {
	event := decodeEvent(msg.Values)
	if err := c.handle(msg.ID, event); err != nil {
		slog.Warn("event handler failed, leaving message pending", "id", msg.ID, "error", err)
		return
	}
	if err := c.rdb.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
		slog.Warn("failed to ack event", "id", msg.ID, "error", err)
	}
}

func decodeEvent(values map[string]interface{}) models.StreamEvent {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}
	return models.StreamEvent{
		Operation: str("operation"),
		Input:     str("input"),
		Result:    str("result"),
	}
}
