// Package memstore 实现内存版 PersistentStore（测试用）
//
// 与 mongostore 保持相同的领域错误语义：
//   - 邮箱/角色名唯一冲突、重复 pending 申请 → storage.ErrDuplicate
//   - 审核非 pending 申请 → storage.ErrConflict
//   - 实体不存在 → findOne 类返回 (nil, nil)，写操作返回 storage.ErrNotFound
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu       sync.Mutex
	users    map[string]*model.User
	roles    map[string]*model.Role
	requests map[string]*model.ModeratorRequest
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*model.User),
		roles:    make(map[string]*model.Role),
		requests: make(map[string]*model.ModeratorRequest),
	}
}

// Close 实现 PersistentStore
func (s *Store) Close() error { return nil }

var _ storage.PersistentStore = (*Store)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, name, email *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if email != nil {
		for oid, other := range s.users {
			if oid != id && other.Email == *email {
				return storage.ErrDuplicate
			}
		}
		u.Email = *email
	}
	if name != nil {
		u.Name = *name
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.RoleID = roleID
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsers(ctx context.Context, f storage.UserFilter) ([]*model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*model.User
	for _, u := range s.users {
		if f.RoleID != "" && u.RoleID != f.RoleID {
			continue
		}
		if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		cp := *u
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	return paginate(matched, f.Page, f.Limit), total, nil
}

func (s *Store) SearchUserIDs(ctx context.Context, search string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for _, u := range s.users {
		if containsFold(u.Name, search) || containsFold(u.Email, search) {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ============================================================================
// RoleStore
// ============================================================================

func (s *Store) CreateRole(ctx context.Context, role *model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == role.Name {
			return storage.ErrDuplicate
		}
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *Store) GetRole(ctx context.Context, id string) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := []*model.Role{}
	for _, r := range s.roles {
		cp := *r
		roles = append(roles, &cp)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// ============================================================================
// ModeratorRequestStore
// ============================================================================

func (s *Store) CreateModeratorRequest(ctx context.Context, req *model.ModeratorRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status == model.RequestStatusPending {
		for _, r := range s.requests {
			if r.UserID == req.UserID && r.Status == model.RequestStatusPending {
				return storage.ErrDuplicate
			}
		}
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *Store) GetModeratorRequest(ctx context.Context, id string) (*model.ModeratorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListModeratorRequests(ctx context.Context, f storage.RequestFilter) ([]*model.ModeratorRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var allowed map[string]bool
	if f.UserIDs != nil {
		allowed = make(map[string]bool, len(f.UserIDs))
		for _, id := range f.UserIDs {
			allowed[id] = true
		}
	}

	var matched []*model.ModeratorRequest
	for _, r := range s.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if allowed != nil && !allowed[r.UserID] {
			continue
		}
		cp := *r
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AppliedAt.Equal(matched[j].AppliedAt) {
			return matched[i].AppliedAt.After(matched[j].AppliedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	return paginate(matched, f.Page, f.Limit), total, nil
}

func (s *Store) ReviewModeratorRequest(ctx context.Context, id string, status model.RequestStatus, reviewerID string, comments *string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	if r.Status != model.RequestStatusPending {
		return storage.ErrConflict
	}
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &reviewedAt
	r.ReviewComments = comments
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
