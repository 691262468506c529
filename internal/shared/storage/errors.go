// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/memstore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrConflict 条件写入未命中（如对非 pending 申请做审核）
	ErrConflict = errors.New("conflict: precondition not met")

	// ErrDuplicate 唯一键冲突（邮箱重复、重复 pending 申请）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
