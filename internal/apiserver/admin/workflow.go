// Package admin 管理端工作流
//
// Workflow 是 ModeratorRequest.status 与 User.role 的唯一写入方：
// 审批状态机（pending → approved|rejected，恰好一次）、直接任命、
// 版主降级与用户管理都在这里编排。
package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/shared/eventbus"
	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// Store 工作流所需的存储接口
type Store interface {
	GetModeratorRequest(ctx context.Context, id string) (*model.ModeratorRequest, error)
	ReviewModeratorRequest(ctx context.Context, id string, status model.RequestStatus, reviewerID string, comments *string, reviewedAt time.Time) error
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUserRole(ctx context.Context, id, roleID string) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, f storage.UserFilter) ([]*model.User, int64, error)
}

// RoleRegistry 角色注册表接口
type RoleRegistry interface {
	Resolve(ctx context.Context, roleID string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
}

// ReviewRecorder 审批指标回调（可选）
type ReviewRecorder interface {
	RecordModerationReview(decision string)
}

// Workflow 管理端工作流控制器
type Workflow struct {
	store    Store
	registry RoleRegistry
	bus      eventbus.ModerationEventBus
	metrics  ReviewRecorder
}

// NewWorkflow 创建工作流控制器
func NewWorkflow(store Store, registry RoleRegistry, bus eventbus.ModerationEventBus) *Workflow {
	return &Workflow{store: store, registry: registry, bus: bus}
}

// SetMetrics 注入指标回调
func (wf *Workflow) SetMetrics(m ReviewRecorder) {
	wf.metrics = m
}

func (wf *Workflow) record(decision string) {
	if wf.metrics != nil {
		wf.metrics.RecordModerationReview(decision)
	}
}

// ============================================================================
// 审批状态机
// ============================================================================

// Approve 批准申请：条件写入终态（仅当 pending），然后把申请人角色置为 Moderator。
// 状态检查与终态写入在同一次条件更新中完成，并发批准只有一个成功，
// 败者收到 AlreadyProcessed，不会重复改角色。
func (wf *Workflow) Approve(ctx context.Context, requestID, reviewerID string, comments *string) (*model.UserSummary, error) {
	req, err := wf.store.GetModeratorRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("moderator request %s: %w", requestID, errdefs.ErrNotFound)
	}

	moderatorRole, err := wf.registry.GetByName(ctx, model.RoleModerator)
	if err != nil {
		return nil, err
	}

	user, err := wf.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("requester %s: %w", req.UserID, errdefs.ErrNotFound)
	}

	now := time.Now()
	if err := wf.store.ReviewModeratorRequest(ctx, requestID, model.RequestStatusApproved, reviewerID, comments, now); err != nil {
		return nil, mapReviewError(requestID, err)
	}

	if err := wf.store.UpdateUserRole(ctx, user.ID, moderatorRole.ID); err != nil {
		return nil, err
	}

	wf.publish(ctx, &eventbus.ModerationEvent{
		Type:      eventbus.EventRequestApproved,
		RequestID: requestID,
		UserID:    user.ID,
		Reviewer:  reviewerID,
		Timestamp: now,
	})

	wf.record("approved")
	log.Printf("[admin] Request approved: %s, user %s is now %s", requestID, user.ID, model.RoleModerator)
	return user.Summary(model.RoleModerator), nil
}

// Reject 驳回申请。驳回必须给出理由（与批准不同）。
func (wf *Workflow) Reject(ctx context.Context, requestID, reviewerID, comments string) (*model.ModeratorRequest, error) {
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, fmt.Errorf("rejection reason is required: %w", errdefs.ErrInvalidArgument)
	}

	now := time.Now()
	if err := wf.store.ReviewModeratorRequest(ctx, requestID, model.RequestStatusRejected, reviewerID, &comments, now); err != nil {
		return nil, mapReviewError(requestID, err)
	}

	req, err := wf.store.GetModeratorRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	wf.publish(ctx, &eventbus.ModerationEvent{
		Type:      eventbus.EventRequestRejected,
		RequestID: requestID,
		UserID:    req.UserID,
		Reviewer:  reviewerID,
		Timestamp: now,
	})

	wf.record("rejected")
	log.Printf("[admin] Request rejected: %s by %s", requestID, reviewerID)
	return req, nil
}

// mapReviewError 把条件写入失败映射为领域错误
func mapReviewError(requestID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("moderator request %s: %w", requestID, errdefs.ErrNotFound)
	}
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("request already processed: %w", errdefs.ErrFailedPrecondition)
	}
	return err
}

// ============================================================================
// 直接任命 / 降级
// ============================================================================

// CreateModerator 管理员直接创建版主账号。
// 独立于申请台账的捷径路径，不触碰 ModeratorRequest。
func (wf *Workflow) CreateModerator(ctx context.Context, name, email, password string) (*model.UserSummary, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email, password are required: %w", errdefs.ErrInvalidArgument)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", errdefs.ErrInvalidArgument)
	}

	moderatorRole, err := wf.registry.GetByName(ctx, model.RoleModerator)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       moderatorRole.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := wf.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("email already exists: %w", errdefs.ErrAlreadyExists)
		}
		return nil, err
	}

	log.Printf("[admin] Moderator created: %s (%s)", user.Email, user.ID)
	return user.Summary(model.RoleModerator), nil
}

// RemoveModerator 把版主降回默认 User 角色。
// 角色名比较使用规范写法，大小写敏感。
func (wf *Workflow) RemoveModerator(ctx context.Context, userID string) (*model.UserSummary, error) {
	user, err := wf.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, errdefs.ErrNotFound)
	}

	role, err := wf.registry.Resolve(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	if role.Name != model.RoleModerator {
		return nil, fmt.Errorf("user is not a moderator: %w", errdefs.ErrFailedPrecondition)
	}

	defaultRole, err := wf.registry.GetByName(ctx, model.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := wf.store.UpdateUserRole(ctx, userID, defaultRole.ID); err != nil {
		return nil, err
	}

	wf.publish(ctx, &eventbus.ModerationEvent{
		Type:      eventbus.EventModeratorRemoved,
		UserID:    userID,
		Timestamp: time.Now(),
	})

	log.Printf("[admin] Moderator removed: %s is now %s", userID, model.RoleUser)
	return user.Summary(model.RoleUser), nil
}

// ============================================================================
// 用户管理
// ============================================================================

// UserPage 用户列表页
type UserPage struct {
	Users      []*model.UserSummary `json:"users"`
	Pagination Pagination           `json:"pagination"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// ListUsersParams 用户列表查询参数
type ListUsersParams struct {
	RoleName string // 空串表示全部
	Search   string
	Page     int
	Limit    int
}

// ListUsers 分页查询用户，可按角色名过滤。未知角色名返回空页。
func (wf *Workflow) ListUsers(ctx context.Context, p ListUsersParams) (*UserPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}

	f := storage.UserFilter{Search: p.Search, Page: p.Page, Limit: p.Limit}
	if p.RoleName != "" {
		role, err := wf.registry.GetByName(ctx, p.RoleName)
		if err != nil {
			if errdefs.IsInternal(err) {
				// 角色不存在 → 没有匹配用户
				return &UserPage{Users: []*model.UserSummary{}, Pagination: Pagination{Page: p.Page, Limit: p.Limit}}, nil
			}
			return nil, err
		}
		f.RoleID = role.ID
	}

	users, total, err := wf.store.ListUsers(ctx, f)
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.UserSummary, 0, len(users))
	for _, u := range users {
		role, err := wf.registry.Resolve(ctx, u.RoleID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, u.Summary(role.Name))
	}

	totalPages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	return &UserPage{
		Users: summaries,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// ListModerators 分页查询版主
func (wf *Workflow) ListModerators(ctx context.Context, p ListUsersParams) (*UserPage, error) {
	p.RoleName = model.RoleModerator
	return wf.ListUsers(ctx, p)
}

// GetUser 查询单个用户（角色已解析）
func (wf *Workflow) GetUser(ctx context.Context, id string) (*model.UserSummary, error) {
	user, err := wf.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, errdefs.ErrNotFound)
	}
	role, err := wf.registry.Resolve(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return user.Summary(role.Name), nil
}

// DeleteUser 删除用户。禁止删除自己的账号。
func (wf *Workflow) DeleteUser(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return fmt.Errorf("cannot delete your own account: %w", errdefs.ErrInvalidArgument)
	}
	err := wf.store.DeleteUser(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %s: %w", targetID, errdefs.ErrNotFound)
	}
	if err != nil {
		return err
	}
	log.Printf("[admin] User deleted: %s by %s", targetID, callerID)
	return nil
}

func (wf *Workflow) publish(ctx context.Context, event *eventbus.ModerationEvent) {
	if wf.bus == nil {
		return
	}
	if err := wf.bus.PublishModerationEvent(ctx, event); err != nil {
		log.Printf("[admin] publish event failed: %v", err)
	}
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
