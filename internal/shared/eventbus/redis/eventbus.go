// Package redis 基于 Redis Streams 的变更总线实现（托管部署）
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"campus-catalog/internal/shared/eventbus"
)

// Bus Redis Streams 变更总线
type Bus struct {
	client *redis.Client
}

var _ eventbus.Bus = (*Bus)(nil)

// NewBus 创建 Redis 变更总线
func NewBus(addr, password string, db int) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &Bus{client: client}, nil
}

// NewBusFromURL 从 URL 创建 Redis 变更总线
func NewBusFromURL(redisURL string) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis] Connected to %s", opts.Addr)
	return &Bus{client: client}, nil
}

// Close 关闭 Redis 连接
func (b *Bus) Close() error {
	return b.client.Close()
}

func streamKey(col eventbus.Collection) string {
	return eventbus.KeyCatalogChanges + string(col)
}

// PublishChange 发布集合变更事件
func (b *Bus) PublishChange(ctx context.Context, change *eventbus.Change) error {
	args := &redis.XAddArgs{
		Stream: streamKey(change.Collection),
		MaxLen: eventbus.MaxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"type":      string(change.Type),
			"entity_id": change.EntityID,
			"timestamp": change.Timestamp.Format(time.RFC3339Nano),
		},
	}

	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// SubscribeChanges 订阅集合变更流（阻塞读循环，ctx 取消后退出）
func (b *Bus) SubscribeChanges(ctx context.Context, col eventbus.Collection) (<-chan *eventbus.Change, error) {
	key := streamKey(col)
	ch := make(chan *eventbus.Change, 100)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := b.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{key, lastID},
				Count:   10,
				Block:   5 * time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Redis/EventBus] Change subscription error: %v", err)
				return
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					change := &eventbus.Change{Collection: col}
					if t, ok := msg.Values["type"].(string); ok {
						change.Type = eventbus.ChangeType(t)
					}
					if id, ok := msg.Values["entity_id"].(string); ok {
						change.EntityID = id
					}
					if ts, ok := msg.Values["timestamp"].(string); ok {
						if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
							change.Timestamp = t
						}
					}

					select {
					case ch <- change:
					case <-ctx.Done():
						return
					}
					lastID = msg.ID
				}
			}
		}
	}()

	return ch, nil
}
