// Package bus implements a topic-routed message exchange on top of
// Redis Streams. A routing key is a stream key; a durable queue is a
// consumer group bound to it. XReadGroup with Count=1 gives
// prefetch=1; XAck after a successful handler gives
// ack-after-success; entries left unacked sit in the group's pending
// list and are reclaimed by a second consumer or the same one on its
// next pass, giving at-least-once redelivery.
//
// Built on github.com/redis/go-redis/v9's Streams API rather than its
// plain pub/sub so that delivery survives a consumer restart.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	minBackoff   = 1 * time.Second
	maxBackoff   = 30 * time.Second
	claimIdle    = 30 * time.Second
	blockTimeout = 5 * time.Second
	payloadField = "payload"
)

// Bus is a Redis-Streams-backed topic exchange.
type Bus struct {
	client *redis.Client
	log    zerolog.Logger
}

// Config is the subset of connection settings the bus needs.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and returns a Bus. It does not itself retry;
// callers that need a broker available at process start should wrap
// this in their own startup retry loop.
func New(cfg Config, log zerolog.Logger) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("bus: ping failed: %w", err)
	}

	return &Bus{client: client, log: log}, nil
}

// Close releases the underlying Redis connection.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Publish marshals payload as JSON and appends it to topic's stream.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus: marshal payload: %w", err)
	}

	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{payloadField: data},
	}).Err()
}

// Handler processes one message's raw JSON payload. A non-nil error
// leaves the message unacked for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Consume binds queue as a durable consumer group on topic's stream
// and runs handler for each delivered message with prefetch=1,
// acknowledging only on success, until ctx is cancelled. Connection
// errors trigger capped exponential backoff that resets after a
// successful read.
func (b *Bus) Consume(ctx context.Context, topic, queue string, handler Handler) error {
	consumer := consumerName()

	if err := b.ensureGroup(ctx, topic, queue); err != nil {
		return err
	}

	backoff := minBackoff
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := b.reclaimStale(ctx, topic, queue, consumer, handler); err != nil {
			b.log.Warn().Err(err).Str("topic", topic).Str("queue", queue).Msg("reclaim pending entries failed")
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    queue,
			Consumer: consumer,
			Streams:  []string{topic, ">"},
			Count:    1,
			Block:    blockTimeout,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			b.log.Warn().Err(err).Str("topic", topic).Dur("backoff", backoff).Msg("bus read failed, reconnecting")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.deliver(ctx, topic, queue, msg, handler)
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, topic, queue string, msg redis.XMessage, handler Handler) {
	raw, _ := msg.Values[payloadField].(string)

	if err := handler(ctx, []byte(raw)); err != nil {
		b.log.Error().Err(err).Str("topic", topic).Str("id", msg.ID).Msg("handler failed, leaving unacked")
		return
	}

	if err := b.client.XAck(ctx, topic, queue, msg.ID).Err(); err != nil {
		b.log.Error().Err(err).Str("topic", topic).Str("id", msg.ID).Msg("ack failed")
	}
}

// reclaimStale claims entries idle for longer than claimIdle and
// redelivers them to this consumer, implementing at-least-once
// redelivery for workers that died mid-handler.
func (b *Bus) reclaimStale(ctx context.Context, topic, queue, consumer string, handler Handler) error {
	msgs, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   topic,
		Group:    queue,
		Consumer: consumer,
		MinIdle:  claimIdle,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	for _, msg := range msgs {
		b.deliver(ctx, topic, queue, msg, handler)
	}
	return nil
}

func (b *Bus) ensureGroup(ctx context.Context, topic, queue string) error {
	err := b.client.XGroupCreateMkStream(ctx, topic, queue, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("bus: create group %s on %s: %w", queue, topic, err)
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
