package modreq

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/containerd/errdefs"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/shared/model"
)

// Handler 版主申请 HTTP 处理器
type Handler struct {
	ledger *Ledger
}

// NewHandler 创建处理器
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// RegisterRoutes 注册路由，adminOnly 为管理端角色门
func (h *Handler) RegisterRoutes(mux *http.ServeMux, adminOnly func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/v1/auth/request-moderator", h.Submit)
	mux.HandleFunc("GET /api/v1/admin/moderator-requests", adminOnly(h.List))
	mux.HandleFunc("GET /api/v1/admin/moderator-requests/{id}", adminOnly(h.Get))
}

type submitRequest struct {
	Reason string `json:"reason"`
}

// Submit 提交版主申请（任何已认证用户）
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.ledger.Submit(r.Context(), authUser.ID, req.Reason)
	if err != nil {
		writeDomainError(w, "modreq.submit", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "moderator request submitted",
		"request_id": created.ID,
		"status":     created.Status,
	})
}

// List 分页查询申请（Admin）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Status: model.RequestStatus(q.Get("status")),
		Search: q.Get("search"),
		Page:   intQuery(q.Get("page"), 1),
		Limit:  intQuery(q.Get("limit"), 10),
	}

	page, err := h.ledger.List(r.Context(), params)
	if err != nil {
		writeDomainError(w, "modreq.list", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get 查询单条申请（Admin）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.ledger.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "modreq.get", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.RequestDetail{"request": detail})
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

// writeDomainError 把领域错误映射为 HTTP 状态码。
// 未分类错误按 Internal 处理：细节只进日志，响应体为通用消息。
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
