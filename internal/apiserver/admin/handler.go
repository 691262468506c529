package admin

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/containerd/errdefs"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/shared/model"
)

// Handler 管理端 HTTP 处理器
type Handler struct {
	workflow *Workflow
}

// NewHandler 创建处理器
func NewHandler(workflow *Workflow) *Handler {
	return &Handler{workflow: workflow}
}

// RegisterRoutes 注册管理端路由，全部经过 adminOnly 角色门
func (h *Handler) RegisterRoutes(mux *http.ServeMux, adminOnly func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/v1/admin/users", adminOnly(h.ListUsers))
	mux.HandleFunc("GET /api/v1/admin/users/{id}", adminOnly(h.GetUser))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}", adminOnly(h.DeleteUser))

	mux.HandleFunc("PUT /api/v1/admin/moderator-requests/{id}/approve", adminOnly(h.Approve))
	mux.HandleFunc("PUT /api/v1/admin/moderator-requests/{id}/reject", adminOnly(h.Reject))

	mux.HandleFunc("POST /api/v1/admin/moderators", adminOnly(h.CreateModerator))
	mux.HandleFunc("GET /api/v1/admin/moderators", adminOnly(h.ListModerators))
	mux.HandleFunc("DELETE /api/v1/admin/moderators/{id}", adminOnly(h.RemoveModerator))
}

// ============================================================================
// 请求类型
// ============================================================================

type reviewRequest struct {
	Comments string `json:"comments"`
}

type createModeratorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ============================================================================
// 审批
// ============================================================================

// Approve 批准版主申请
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var comments *string
	if req.Comments != "" {
		comments = &req.Comments
	}

	updated, err := h.workflow.Approve(r.Context(), r.PathValue("id"), authUser.ID, comments)
	if err != nil {
		writeDomainError(w, "admin.approve", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "moderator request approved",
		"user":    updated,
	})
}

// Reject 驳回版主申请（必须给出理由）
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.workflow.Reject(r.Context(), r.PathValue("id"), authUser.ID, req.Comments)
	if err != nil {
		writeDomainError(w, "admin.reject", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "moderator request rejected",
		"request": updated,
	})
}

// ============================================================================
// 版主管理
// ============================================================================

// CreateModerator 直接创建版主账号
func (h *Handler) CreateModerator(w http.ResponseWriter, r *http.Request) {
	var req createModeratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	moderator, err := h.workflow.CreateModerator(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, "admin.create-moderator", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "moderator created",
		"moderator": moderator,
	})
}

// ListModerators 分页查询版主
func (h *Handler) ListModerators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.workflow.ListModerators(r.Context(), ListUsersParams{
		Search: q.Get("search"),
		Page:   intQuery(q.Get("page"), 1),
		Limit:  intQuery(q.Get("limit"), 10),
	})
	if err != nil {
		writeDomainError(w, "admin.list-moderators", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// RemoveModerator 撤销版主角色，降回 User
func (h *Handler) RemoveModerator(w http.ResponseWriter, r *http.Request) {
	updated, err := h.workflow.RemoveModerator(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "admin.remove-moderator", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "moderator role removed",
		"user":    updated,
	})
}

// ============================================================================
// 用户管理
// ============================================================================

// ListUsers 分页查询用户
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.workflow.ListUsers(r.Context(), ListUsersParams{
		RoleName: q.Get("role"),
		Search:   q.Get("search"),
		Page:     intQuery(q.Get("page"), 1),
		Limit:    intQuery(q.Get("limit"), 10),
	})
	if err != nil {
		writeDomainError(w, "admin.list-users", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetUser 查询单个用户
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.workflow.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "admin.get-user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.UserSummary{"user": user})
}

// DeleteUser 删除用户（禁止自删）
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	if err := h.workflow.DeleteUser(r.Context(), authUser.ID, r.PathValue("id")); err != nil {
		writeDomainError(w, "admin.delete-user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ============================================================================
// 工具函数
// ============================================================================

func intQuery(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return def
		}
	}
	if n == 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeDomainError(w http.ResponseWriter, tag string, err error) {
	switch {
	case errdefs.IsInvalidArgument(err), errdefs.IsFailedPrecondition(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errdefs.IsUnauthorized(err):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errdefs.IsPermissionDenied(err):
		writeError(w, http.StatusForbidden, err.Error())
	case errdefs.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errdefs.IsAlreadyExists(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[%s] internal error: %v", tag, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
