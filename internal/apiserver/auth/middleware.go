package auth

import (
	"log"
	"net/http"
	"strings"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/openapi.yaml",
	"/api-docs",
	"/health",
	"/metrics",
	"/ws/", // websocket 网关自行校验 token 查询参数
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建认证门中间件
//
// 校验 Bearer 令牌的签名与有效期，并把令牌主体解析为用户记录（角色已填充）
// 注入 context。令牌缺失/畸形/过期/密钥不符，或主体已不存在，一律 401。
func Middleware(cfg Config, store UserStore, registry RoleRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			user, err := ResolveToken(r.Context(), cfg, store, registry, parts[1])
			if err != nil {
				log.Printf("[auth] token rejected: %v", err)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}
