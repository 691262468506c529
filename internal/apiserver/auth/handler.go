package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id string, name, email *string) error
}

// RoleRegistry 角色注册表接口
type RoleRegistry interface {
	Resolve(ctx context.Context, roleID string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
}

// LoginRecorder 登录指标回调（可选）
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store    UserStore
	registry RoleRegistry
	cfg      Config
	metrics  LoginRecorder
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, registry RoleRegistry, cfg Config) *Handler {
	return &Handler{store: store, registry: registry, cfg: cfg}
}

// SetMetrics 注入登录指标回调
func (h *Handler) SetMetrics(m LoginRecorder) {
	h.metrics = m
}

func (h *Handler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("PUT /api/v1/auth/profile", h.UpdateProfile)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// profile 对外的用户视图（角色与权限已解析）
type profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  *profile `json:"user"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册，默认角色 User
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, password are required")
		return
	}
	if !isValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	userRole, err := h.registry.GetByName(r.Context(), model.RoleUser)
	if err != nil {
		log.Printf("[auth.register] role lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       userRole.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.register] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  makeProfile(user, userRole),
	})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		h.recordLogin("failure")
		writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	role, err := h.registry.Resolve(r.Context(), user.RoleID)
	if err != nil {
		log.Printf("[auth.login] role resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.recordLogin("success")
	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  makeProfile(user, role),
	})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUser(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	role, err := h.registry.Resolve(r.Context(), user.RoleID)
	if err != nil {
		log.Printf("[auth.me] role resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]*profile{"user": makeProfile(user, role)})
}

// UpdateProfile 更新本人名称/邮箱
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var name, email *string
	if v := strings.TrimSpace(req.Name); v != "" {
		name = &v
	}
	if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" {
		if !isValidEmail(v) {
			writeError(w, http.StatusBadRequest, "invalid email format")
			return
		}
		email = &v
	}
	if name == nil && email == nil {
		writeError(w, http.StatusBadRequest, "provide name or email to update")
		return
	}

	if err := h.store.UpdateUserProfile(r.Context(), authUser.ID, name, email); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		log.Printf("[auth.profile] UpdateUserProfile error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	user, err := h.store.GetUser(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	role, err := h.registry.Resolve(r.Context(), user.RoleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]*profile{"user": makeProfile(user, role)})
}

// ============================================================================
// Token 解析
// ============================================================================

// ResolveToken 验证令牌并把主体解析为 AuthUser（角色名已填充）。
// 认证中间件和 websocket 网关共用。
func ResolveToken(ctx context.Context, cfg Config, store UserStore, registry RoleRegistry, token string) (*AuthUser, error) {
	claims, err := ParseToken(cfg, token)
	if err != nil {
		return nil, err
	}
	user, err := store.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("subject %s no longer exists", claims.Subject)
	}
	role, err := registry.Resolve(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: role.Name}, nil
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用，角色播种之后）
func EnsureAdminUser(store UserStore, registry RoleRegistry, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	adminRole, err := registry.GetByName(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin role lookup: %w", err)
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Name:         "Admin",
		Email:        adminEmail,
		PasswordHash: hash,
		RoleID:       adminRole.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func makeProfile(user *model.User, role *model.Role) *profile {
	return &profile{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        role.Name,
		Permissions: role.Permissions,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
