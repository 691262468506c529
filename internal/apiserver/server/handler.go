package server

import (
	"net/http"

	"role-admin/api"
	"role-admin/internal/apiserver/admin"
	"role-admin/internal/apiserver/auth"
	"role-admin/internal/apiserver/authz"
	"role-admin/internal/apiserver/modreq"
	"role-admin/internal/shared/model"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register          - 用户注册
//   - POST /api/v1/auth/login             - 用户登录
//   - GET  /api/v1/auth/me                - 当前用户信息
//   - PUT  /api/v1/auth/profile           - 更新个人资料
//   - POST /api/v1/auth/request-moderator - 提交版主申请
//
// 管理端 (Admin，仅 Admin 角色):
//   - GET    /api/v1/admin/users                          - 列出用户
//   - GET    /api/v1/admin/users/{id}                     - 获取用户详情
//   - DELETE /api/v1/admin/users/{id}                     - 删除用户
//   - GET    /api/v1/admin/moderator-requests             - 列出版主申请
//   - GET    /api/v1/admin/moderator-requests/{id}        - 获取申请详情
//   - PUT    /api/v1/admin/moderator-requests/{id}/approve - 批准申请
//   - PUT    /api/v1/admin/moderator-requests/{id}/reject  - 驳回申请
//   - POST   /api/v1/admin/moderators                     - 直接创建版主
//   - GET    /api/v1/admin/moderators                     - 列出版主
//   - DELETE /api/v1/admin/moderators/{id}                - 撤销版主角色
//
// WebSocket:
//   - GET /ws/moderation/events - 审核事件实时推送（仅 Admin）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", h.metrics.Handler())

	// OpenAPI 文档
	api.RegisterRoutes(mux)

	// 管理端路由统一经过 Admin 角色门
	adminOnly := authz.Allow(model.RoleAdmin)

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.registry, h.authConfig)
	authHandler.SetMetrics(h.metrics)
	authHandler.RegisterRoutes(mux)

	// 版主申请台账
	ledger := modreq.NewLedger(h.store, h.registry, h.bus)
	ledger.SetMetrics(h.metrics)
	modreqHandler := modreq.NewHandler(ledger)
	modreqHandler.RegisterRoutes(mux, adminOnly)

	// 管理端工作流
	workflow := admin.NewWorkflow(h.store, h.registry, h.bus)
	workflow.SetMetrics(h.metrics)
	adminHandler := admin.NewHandler(workflow)
	adminHandler.RegisterRoutes(mux, adminOnly)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authConfig, h.store, h.registry)(apiHandler)

	// 应用 CORS 中间件
	corsHandler := corsMiddleware(authedHandler)

	// 创建顶层路由，WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws/moderation/events", h.eventGateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
