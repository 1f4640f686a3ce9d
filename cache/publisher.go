package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	WeekProcessedStream = "survivor.week.processed"
	ReconcileRunStream  = "survivor.reconcile.runs"
)

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamPublisher creates a new Redis stream publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: 1000,
	}
}

// Publish appends payload as JSON to stream
func (p *RedisStreamPublisher) Publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// NoopPublisher drops every event; used when Redis is not configured
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
