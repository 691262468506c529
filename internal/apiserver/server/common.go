// Package server 路由配置与核心基础设施
//
// 本包把各领域包（auth/modreq/admin）的路由装配成完整的 HTTP 服务：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由装配与中间件链
//   - metrics.go: Prometheus 指标
//   - events.go: WebSocket 审核事件网关
package server

import (
	"encoding/json"
	"net/http"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/apiserver/roles"
	"role-admin/internal/shared/eventbus"
	"role-admin/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到对应的领域包
//   - 管理存储层连接与角色注册表
//   - 协调事件总线与 WebSocket 网关
type Handler struct {
	store    storage.PersistentStore // 持久化存储层
	registry *roles.Registry         // 角色注册表
	bus      eventbus.ModerationEventBus

	authConfig auth.Config

	eventGateway *EventGateway // WebSocket 审核事件网关
	metrics      *Metrics      // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, registry *roles.Registry, bus eventbus.ModerationEventBus, authConfig auth.Config) *Handler {
	h := &Handler{
		store:      store,
		registry:   registry,
		bus:        bus,
		authConfig: authConfig,
	}
	h.metrics = NewMetrics("roleadmin")
	h.eventGateway = NewEventGateway(authConfig, store, registry, bus, h.metrics)
	return h
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
