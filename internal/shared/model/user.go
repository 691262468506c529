package model

import "time"

// User 用户身份记录
//
// 每个用户引用恰好一个 Role（RoleID）。角色解析（填充 Role 名称/权限）
// 由读取方显式完成，存储层不做隐式 join。
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose in JSON
	RoleID       string    `json:"role_id" bson:"role_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// UserSummary 解析后的用户摘要（角色已填充为名称）
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Summary 生成摘要，roleName 由调用方从 Role Registry 解析
func (u *User) Summary(roleName string) *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: roleName}
}
