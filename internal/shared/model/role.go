// Package model 定义核心数据模型
//
// role.go 包含角色相关的数据模型定义：
//   - Role：命名权限集合
//   - 规范角色名常量（Title Case，全局唯一写法）
package model

import "time"

// 规范角色名。角色名大小写敏感，所有比较都使用这些常量，
// 禁止在代码中出现 "admin"/"moderator" 等其他写法。
const (
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleUser      = "User"
)

// Role 命名权限集合
//
// 进程启动时按名称幂等播种（Admin/Moderator/User），每个名称恰好一份文档。
type Role struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Permissions []string  `json:"permissions" bson:"permissions"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// SeededRoles 返回启动时播种的角色权限集
func SeededRoles() []Role {
	return []Role{
		{Name: RoleAdmin, Permissions: []string{"manage_users", "manage_moderators", "manage_roles"}},
		{Name: RoleModerator, Permissions: []string{"manage_users_limited", "view_logs"}},
		{Name: RoleUser, Permissions: []string{"view_content"}},
	}
}
