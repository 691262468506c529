// Package roles 角色注册表
//
// 显式注入的 Role Registry：按名称查询角色、启动时幂等播种。
// 不做进程内缓存，角色集合小且变更极少，直查存储即可。
package roles

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/containerd/errdefs"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// Registry 角色注册表
type Registry struct {
	store storage.RoleStore
}

// NewRegistry 创建角色注册表
func NewRegistry(store storage.RoleStore) *Registry {
	return &Registry{store: store}
}

// Seed 播种内置角色（Admin/Moderator/User），已存在的名称跳过
func (r *Registry) Seed(ctx context.Context) error {
	for _, seed := range model.SeededRoles() {
		existing, err := r.store.GetRoleByName(ctx, seed.Name)
		if err != nil {
			return fmt.Errorf("check role %s: %w", seed.Name, err)
		}
		if existing != nil {
			continue
		}

		now := time.Now()
		role := seed
		role.ID = generateID("role")
		role.CreatedAt = now
		role.UpdatedAt = now

		err = r.store.CreateRole(ctx, &role)
		if errors.Is(err, storage.ErrDuplicate) {
			// 并发播种，另一实例先写入
			continue
		}
		if err != nil {
			return fmt.Errorf("create role %s: %w", seed.Name, err)
		}
		log.Printf("[roles] Role created: %s (%s)", role.Name, role.ID)
	}
	return nil
}

// GetByName 按规范名称查询角色。
// 角色未播种视为部署错误，返回 Internal 级领域错误。
func (r *Registry) GetByName(ctx context.Context, name string) (*model.Role, error) {
	role, err := r.store.GetRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("role %q not seeded: %w", name, errdefs.ErrInternal)
	}
	return role, nil
}

// Resolve 按 ID 解析角色（显式 join 步骤，替代隐式 populate）
func (r *Registry) Resolve(ctx context.Context, roleID string) (*model.Role, error) {
	role, err := r.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("role %q not found: %w", roleID, errdefs.ErrInternal)
	}
	return role, nil
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
