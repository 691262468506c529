// Package eventbus 事件总线抽象接口
//
// 提供事件的发布/订阅能力，当前由 Redis Pub/Sub 实现。
package eventbus

import "context"

// ModerationEventBus 审核事件总线接口
type ModerationEventBus interface {
	// PublishModerationEvent 发布审核事件（尽力而为，失败只记日志不阻断业务）
	PublishModerationEvent(ctx context.Context, event *ModerationEvent) error

	// SubscribeModerationEvents 订阅审核事件流。
	// 返回的 cancel 用于退订并关闭 channel。
	SubscribeModerationEvents(ctx context.Context) (<-chan *ModerationEvent, func(), error)
}

// EventBus 事件总线组合接口
type EventBus interface {
	ModerationEventBus
	Close() error
}
