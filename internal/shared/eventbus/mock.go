// Package eventbus NoOp 实现（测试以及未配置 Redis 时使用）
package eventbus

import "context"

// NoOpEventBus 空操作事件总线
type NoOpEventBus struct{}

// NewNoOpEventBus 创建 NoOpEventBus 实例
func NewNoOpEventBus() *NoOpEventBus {
	return &NoOpEventBus{}
}

// PublishModerationEvent 丢弃事件
func (b *NoOpEventBus) PublishModerationEvent(ctx context.Context, event *ModerationEvent) error {
	return nil
}

// SubscribeModerationEvents 返回永不产出的 channel
func (b *NoOpEventBus) SubscribeModerationEvents(ctx context.Context) (<-chan *ModerationEvent, func(), error) {
	ch := make(chan *ModerationEvent)
	return ch, func() { close(ch) }, nil
}

// Close 关闭
func (b *NoOpEventBus) Close() error { return nil }

var _ EventBus = (*NoOpEventBus)(nil)
