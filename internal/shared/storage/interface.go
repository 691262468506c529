// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"time"

	"role-admin/internal/shared/model"
)

// UserFilter 用户列表过滤条件
type UserFilter struct {
	RoleID string // 按角色过滤（空串表示全部）
	Search string // 名称/邮箱大小写不敏感子串匹配
	Page   int    // 从 1 开始
	Limit  int
}

// RequestFilter 版主申请列表过滤条件
type RequestFilter struct {
	Status  model.RequestStatus // 空串表示全部
	UserIDs []string            // 限定申请人集合（nil 表示不限定，空切片表示无匹配）
	Page    int
	Limit   int
}

// UserStore 用户存储接口
type UserStore interface {
	// CreateUser 创建用户，邮箱冲突返回 ErrDuplicate
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUserProfile 更新名称/邮箱（nil 表示不改），邮箱冲突返回 ErrDuplicate
	UpdateUserProfile(ctx context.Context, id string, name, email *string) error
	// UpdateUserRole 变更用户的角色引用
	UpdateUserRole(ctx context.Context, id, roleID string) error
	DeleteUser(ctx context.Context, id string) error
	// ListUsers 按创建时间倒序分页，返回条目与总数
	ListUsers(ctx context.Context, f UserFilter) ([]*model.User, int64, error)
	// SearchUserIDs 返回名称或邮箱包含 search（大小写不敏感）的用户 ID
	SearchUserIDs(ctx context.Context, search string) ([]string, error)
}

// RoleStore 角色存储接口
type RoleStore interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRole(ctx context.Context, id string) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	ListRoles(ctx context.Context) ([]*model.Role, error)
}

// ModeratorRequestStore 版主申请存储接口
type ModeratorRequestStore interface {
	// CreateModeratorRequest 创建申请；同一用户已有 pending 申请时返回 ErrDuplicate
	// （由 (user_id, status=pending) 部分唯一索引保证，非先读后写）
	CreateModeratorRequest(ctx context.Context, req *model.ModeratorRequest) error
	GetModeratorRequest(ctx context.Context, id string) (*model.ModeratorRequest, error)
	// ListModeratorRequests 按 applied_at 倒序（_id 倒序决胜）分页
	ListModeratorRequests(ctx context.Context, f RequestFilter) ([]*model.ModeratorRequest, int64, error)
	// ReviewModeratorRequest 条件更新：仅当 status=pending 时写入终态。
	// 申请不存在返回 ErrNotFound，已处理返回 ErrConflict。
	ReviewModeratorRequest(ctx context.Context, id string, status model.RequestStatus, reviewerID string, comments *string, reviewedAt time.Time) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	RoleStore
	ModeratorRequestStore
	Close() error
}
