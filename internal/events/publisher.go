// Package events appends demo activity to a redis stream consumed by the worker.
package events

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	TypeUpload     = "upload"
	TypeGeneration = "generation"
	TypeCleanup    = "cleanup"

	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Event struct {
	Type      string
	Status    string
	Provider  string
	MediaType string
	Bytes     int64
}

func (e Event) Values() map[string]any {
	values := map[string]any{
		"type":   e.Type,
		"status": e.Status,
	}
	if e.Provider != "" {
		values["provider"] = e.Provider
	}
	if e.MediaType != "" {
		values["mediaType"] = e.MediaType
	}
	if e.Bytes > 0 {
		values["bytes"] = strconv.FormatInt(e.Bytes, 10)
	}
	return values
}

type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher returns a publisher that drops events when client is nil.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: event.Values(),
	}).Result()
	return err
}
