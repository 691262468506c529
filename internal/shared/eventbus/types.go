// Package eventbus 事件总线类型定义
package eventbus

import "time"

// ============================================================================
// 事件类型
// ============================================================================

// 审核工作流事件类型
const (
	EventRequestSubmitted = "request_submitted"
	EventRequestApproved  = "request_approved"
	EventRequestRejected  = "request_rejected"
	EventModeratorRemoved = "moderator_removed"
)

// ModerationEvent 审核工作流事件
//
// Submit/Approve/Reject/RemoveModerator 时发布，供管理端实时订阅。
type ModerationEvent struct {
	Type      string    `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	UserID    string    `json:"user_id"`
	Reviewer  string    `json:"reviewer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ============================================================================
// 常量
// ============================================================================

const (
	// ChannelModeration 审核事件 Pub/Sub 频道
	ChannelModeration = "moderation:events"
)
