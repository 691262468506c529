// Package authz 基于角色的操作授权
//
// 纯谓词：已认证调用者的角色名属于操作声明的许可集合才放行。
// 在认证门之后、业务处理之前求值，不读存储、无副作用。
package authz

import (
	"encoding/json"
	"net/http"

	"role-admin/internal/apiserver/auth"
)

// Allow 返回角色门中间件，roles 为操作的许可角色名集合
func Allow(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	permitted := make(map[string]bool, len(roles))
	for _, r := range roles {
		permitted[r] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := auth.GetAuthUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !permitted[user.Role] {
				writeError(w, http.StatusForbidden, "access denied: insufficient role")
				return
			}
			next(w, r)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
