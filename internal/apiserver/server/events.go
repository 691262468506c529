// Package server WebSocket 审核事件网关
//
// 事件网关把审核事件总线上的事件实时推送给管理端前端，
// 用于审批看板的实时刷新。
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/shared/eventbus"
	"role-admin/internal/shared/model"
)

// upgrader WebSocket 升级器配置
//
// CheckOrigin 当前允许所有来源，生产环境应限制。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventGateway WebSocket 审核事件网关
//
// 职责：
//   - 管理 WebSocket 连接（仅 Admin 可连接）
//   - 订阅审核事件总线并把事件推送给所有客户端
//   - 响应客户端心跳
type EventGateway struct {
	authConfig auth.Config
	store      auth.UserStore
	registry   auth.RoleRegistry
	bus        eventbus.ModerationEventBus
	metrics    *Metrics
}

// NewEventGateway 创建事件网关实例
func NewEventGateway(authConfig auth.Config, store auth.UserStore, registry auth.RoleRegistry, bus eventbus.ModerationEventBus, metrics *Metrics) *EventGateway {
	return &EventGateway{
		authConfig: authConfig,
		store:      store,
		registry:   registry,
		bus:        bus,
		metrics:    metrics,
	}
}

// wsMessage 推送消息格式
type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// wsClient 单个 WebSocket 连接；mu 串行化并发写（事件推送与 pong 响应）
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(msg *wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/moderation/events
//
// 查询参数：
//   - token: JWT（WebSocket 无法携带 Authorization 头）
//
// 推送消息格式：
//
//	事件消息：{"type": "event", "data": {...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
func (g *EventGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := auth.ResolveToken(r.Context(), g.authConfig, g.store, g.registry, r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if user.Role != model.RoleAdmin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	if g.bus == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	events, cancel, err := g.bus.SubscribeModerationEvents(r.Context())
	if err != nil {
		log.Printf("[events] subscribe failed: %v", err)
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	g.metrics.WSConnectionOpened()
	defer g.metrics.WSConnectionClosed()

	log.Printf("[events] WebSocket client connected: %s", user.ID)

	client := &wsClient{conn: conn}
	done := make(chan struct{})
	go g.readPump(client, done)

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := client.write(&wsMessage{Type: "event", Data: event}); err != nil {
				log.Printf("[events] write error: %v", err)
				return
			}
			g.metrics.RecordWSMessage("out", event.Type)
		}
	}
}

// readPump 读取客户端消息，处理心跳；连接关闭时通知写循环退出
func (g *EventGateway) readPump(client *wsClient, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.Type == "ping" {
			g.metrics.RecordWSMessage("in", "ping")
			if err := client.write(&wsMessage{Type: "pong"}); err != nil {
				return
			}
		}
	}
}
