// Package redis ModerationEvents 事件总线操作
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"role-admin/internal/shared/eventbus"
)

// PublishModerationEvent 发布审核事件
func (s *Store) PublishModerationEvent(ctx context.Context, event *eventbus.ModerationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.Publish(ctx, eventbus.ChannelModeration, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[Redis/EventBus] Published event: type=%s user=%s", event.Type, event.UserID)
	return nil
}

// SubscribeModerationEvents 订阅审核事件流
func (s *Store) SubscribeModerationEvents(ctx context.Context) (<-chan *eventbus.ModerationEvent, func(), error) {
	sub := s.client.Subscribe(ctx, eventbus.ChannelModeration)

	// 确认订阅建立
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *eventbus.ModerationEvent, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event eventbus.ModerationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[Redis/EventBus] Bad event payload: %v", err)
				continue
			}
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { sub.Close() }
	return out, cancel, nil
}

var _ eventbus.EventBus = (*Store)(nil)
