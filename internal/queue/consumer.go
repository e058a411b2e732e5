package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

// streamAPI is the set of stream commands the consumer issues.
type streamAPI interface {
	CreateGroup(ctx context.Context, stream, group string) error
	ReadGroup(ctx context.Context, args *redis.XReadGroupArgs) ([]redis.XStream, error)
	Ack(ctx context.Context, stream, group, id string) error
	Pending(ctx context.Context, args *redis.XPendingExtArgs) ([]redis.XPendingExt, error)
	Claim(ctx context.Context, args *redis.XClaimArgs) ([]redis.XMessage, error)
}

type redisStreams struct {
	client *redis.Client
}

func (r redisStreams) CreateGroup(ctx context.Context, stream, group string) error {
	return r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
}

func (r redisStreams) ReadGroup(ctx context.Context, args *redis.XReadGroupArgs) ([]redis.XStream, error) {
	return r.client.XReadGroup(ctx, args).Result()
}

func (r redisStreams) Ack(ctx context.Context, stream, group, id string) error {
	return r.client.XAck(ctx, stream, group, id).Err()
}

func (r redisStreams) Pending(ctx context.Context, args *redis.XPendingExtArgs) ([]redis.XPendingExt, error) {
	return r.client.XPendingExt(ctx, args).Result()
}

func (r redisStreams) Claim(ctx context.Context, args *redis.XClaimArgs) ([]redis.XMessage, error) {
	return r.client.XClaim(ctx, args).Result()
}

type Consumer struct {
	streams       streamAPI
	stream        string
	group         string
	consumer      string
	claimInterval time.Duration
	retryDelay    time.Duration
	logger        zerolog.Logger
	handler       MessageHandler
}

func NewConsumer(client *redis.Client, stream, group, consumer string, claimInterval time.Duration, logger zerolog.Logger, handler MessageHandler) *Consumer {
	return newConsumer(redisStreams{client: client}, stream, group, consumer, claimInterval, logger, handler)
}

func newConsumer(streams streamAPI, stream, group, consumer string, claimInterval time.Duration, logger zerolog.Logger, handler MessageHandler) *Consumer {
	return &Consumer{
		streams:       streams,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		claimInterval: claimInterval,
		retryDelay:    2 * time.Second,
		logger:        logger.With().Str("stream", stream).Str("group", group).Logger(),
		handler:       handler,
	}
}

// EnsureGroup creates the consumer group (and the stream) if missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.streams.CreateGroup(ctx, c.stream, c.group)
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error().Err(err).Msg("stream read error")
				select {
				case <-ctx.Done():
				case <-time.After(c.retryDelay):
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("claim stalled failed")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.streams.ReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

// process acks only handled messages; failures stay pending for a later claim.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("handle message failed")
		return
	}
	if err := c.streams.Ack(ctx, c.stream, c.group, msg.ID); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.streams.Pending(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  10,
	})
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.claimInterval {
			continue
		}
		msgs, err := c.streams.Claim(ctx, &redis.XClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.claimInterval,
			Messages: []string{entry.ID},
		})
		if err != nil {
			c.logger.Error().Err(err).Str("message_id", entry.ID).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
	return nil
}
