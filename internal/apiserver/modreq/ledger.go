// Package modreq 版主申请台账
//
// Ledger 负责申请的提交与查询（Submit/List/Get）；
// 审批状态机在 admin 包的 Workflow 中，本包不写终态。
package modreq

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

	"role-admin/internal/shared/eventbus"
	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// Store 台账所需的存储接口
type Store interface {
	CreateModeratorRequest(ctx context.Context, req *model.ModeratorRequest) error
	GetModeratorRequest(ctx context.Context, id string) (*model.ModeratorRequest, error)
	ListModeratorRequests(ctx context.Context, f storage.RequestFilter) ([]*model.ModeratorRequest, int64, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	SearchUserIDs(ctx context.Context, search string) ([]string, error)
}

// RoleRegistry 角色注册表接口
type RoleRegistry interface {
	Resolve(ctx context.Context, roleID string) (*model.Role, error)
}

// SubmitRecorder 申请提交指标回调（可选）
type SubmitRecorder interface {
	RecordModerationRequest(outcome string)
}

// Ledger 版主申请台账
type Ledger struct {
	store    Store
	registry RoleRegistry
	bus      eventbus.ModerationEventBus
	metrics  SubmitRecorder
}

// NewLedger 创建台账
func NewLedger(store Store, registry RoleRegistry, bus eventbus.ModerationEventBus) *Ledger {
	return &Ledger{store: store, registry: registry, bus: bus}
}

// SetMetrics 注入指标回调
func (l *Ledger) SetMetrics(m SubmitRecorder) {
	l.metrics = m
}

func (l *Ledger) record(outcome string) {
	if l.metrics != nil {
		l.metrics.RecordModerationRequest(outcome)
	}
}

// ListParams 列表查询参数
type ListParams struct {
	Status model.RequestStatus
	Search string
	Page   int
	Limit  int
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// RequestPage 申请列表页
type RequestPage struct {
	Requests   []*model.RequestDetail `json:"requests"`
	Pagination Pagination             `json:"pagination"`
}

// Submit 提交版主申请
//
// 失败语义：
//   - 理由为空 → InvalidArgument
//   - 申请人已是 Moderator/Admin → FailedPrecondition
//   - 已有 pending 申请 → AlreadyExists（由存储层条件写入保证，无竞态窗口）
func (l *Ledger) Submit(ctx context.Context, requesterID, reason string) (*model.ModeratorRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("reason is required: %w", errdefs.ErrInvalidArgument)
	}

	user, err := l.store.GetUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("requester %s: %w", requesterID, errdefs.ErrNotFound)
	}

	role, err := l.registry.Resolve(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	if role.Name == model.RoleModerator || role.Name == model.RoleAdmin {
		return nil, fmt.Errorf("already a moderator or admin: %w", errdefs.ErrFailedPrecondition)
	}

	req := &model.ModeratorRequest{
		ID:        generateID("modreq"),
		UserID:    requesterID,
		Reason:    reason,
		Status:    model.RequestStatusPending,
		AppliedAt: time.Now(),
	}
	if err := l.store.CreateModeratorRequest(ctx, req); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			l.record("duplicate")
			return nil, fmt.Errorf("a pending moderator request already exists: %w", errdefs.ErrAlreadyExists)
		}
		return nil, err
	}
	l.record("submitted")

	l.publish(ctx, &eventbus.ModerationEvent{
		Type:      eventbus.EventRequestSubmitted,
		RequestID: req.ID,
		UserID:    requesterID,
		Timestamp: req.AppliedAt,
	})

	log.Printf("[modreq] Request submitted: %s by %s", req.ID, requesterID)
	return req, nil
}

// List 分页查询申请，applied_at 倒序，申请人/审核人已解析。
// search 先解析为申请人 ID 集合再进入过滤，保证分页在过滤之后进行。
func (l *Ledger) List(ctx context.Context, p ListParams) (*RequestPage, error) {
	if p.Status != "" && !p.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", p.Status, errdefs.ErrInvalidArgument)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}

	f := storage.RequestFilter{Status: p.Status, Page: p.Page, Limit: p.Limit}
	if s := strings.TrimSpace(p.Search); s != "" {
		ids, err := l.store.SearchUserIDs(ctx, s)
		if err != nil {
			return nil, err
		}
		f.UserIDs = ids
	}

	reqs, total, err := l.store.ListModeratorRequests(ctx, f)
	if err != nil {
		return nil, err
	}

	details := make([]*model.RequestDetail, 0, len(reqs))
	for _, r := range reqs {
		d, err := l.resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}

	totalPages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	return &RequestPage{
		Requests: details,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Get 查询单条申请，申请人/审核人已解析
func (l *Ledger) Get(ctx context.Context, id string) (*model.RequestDetail, error) {
	req, err := l.store.GetModeratorRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("moderator request %s: %w", id, errdefs.ErrNotFound)
	}
	return l.resolve(ctx, req)
}

// resolve 显式 join：填充申请人与审核人摘要
func (l *Ledger) resolve(ctx context.Context, req *model.ModeratorRequest) (*model.RequestDetail, error) {
	d := &model.RequestDetail{ModeratorRequest: *req}

	requester, err := l.summary(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	d.Requester = requester

	if req.ReviewedBy != nil {
		reviewer, err := l.summary(ctx, *req.ReviewedBy)
		if err != nil {
			return nil, err
		}
		d.Reviewer = reviewer
	}
	return d, nil
}

// summary 解析用户摘要；用户已被删除时返回 nil（历史申请仍可展示）
func (l *Ledger) summary(ctx context.Context, userID string) (*model.UserSummary, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	role, err := l.registry.Resolve(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return user.Summary(role.Name), nil
}

func (l *Ledger) publish(ctx context.Context, event *eventbus.ModerationEvent) {
	if l.bus == nil {
		return
	}
	if err := l.bus.PublishModerationEvent(ctx, event); err != nil {
		log.Printf("[modreq] publish event failed: %v", err)
	}
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
