package model

import "time"

// RequestStatus 版主申请状态
type RequestStatus string

const (
	// RequestStatusPending 待审核（初始状态）
	RequestStatusPending RequestStatus = "pending"

	// RequestStatusApproved 已批准（终态）
	RequestStatusApproved RequestStatus = "approved"

	// RequestStatusRejected 已驳回（终态）
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid 是否为合法状态值
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// Terminal 是否为终态（approved/rejected 不可再变更）
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// ModeratorRequest 版主晋升申请
//
// 生命周期：pending → approved | rejected，恰好迁移一次，仅由 Admin 触发。
// 同一用户同时最多一条 pending 申请（存储层以条件写入保证，见 mongostore 部分索引）。
type ModeratorRequest struct {
	ID             string        `json:"id" bson:"_id"`
	UserID         string        `json:"user_id" bson:"user_id"`
	Reason         string        `json:"reason" bson:"reason"`
	Status         RequestStatus `json:"status" bson:"status"`
	AppliedAt      time.Time     `json:"applied_at" bson:"applied_at"`
	ReviewedAt     *time.Time    `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReviewedBy     *string       `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewComments *string       `json:"review_comments,omitempty" bson:"review_comments,omitempty"`
}

// RequestDetail 解析后的申请视图（申请人/审核人已显式 join）
type RequestDetail struct {
	ModeratorRequest
	Requester *UserSummary `json:"requester,omitempty"`
	Reviewer  *UserSummary `json:"reviewer,omitempty"`
}
