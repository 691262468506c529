package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/shared/model"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		name       string
		user       *auth.AuthUser
		permitted  []string
		wantStatus int
	}{
		{"admin allowed", &auth.AuthUser{ID: "u1", Role: model.RoleAdmin}, []string{model.RoleAdmin}, http.StatusOK},
		{"user forbidden on admin route", &auth.AuthUser{ID: "u2", Role: model.RoleUser}, []string{model.RoleAdmin}, http.StatusForbidden},
		{"moderator forbidden on admin route", &auth.AuthUser{ID: "u3", Role: model.RoleModerator}, []string{model.RoleAdmin}, http.StatusForbidden},
		{"moderator allowed on shared route", &auth.AuthUser{ID: "u3", Role: model.RoleModerator}, []string{model.RoleAdmin, model.RoleModerator}, http.StatusOK},
		{"unauthenticated", nil, []string{model.RoleAdmin}, http.StatusUnauthorized},
		// 角色名大小写敏感：非规范写法不放行
		{"case mismatch", &auth.AuthUser{ID: "u4", Role: "admin"}, []string{model.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Allow(tt.permitted...)(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
			if tt.user != nil {
				r = r.WithContext(auth.WithAuthUser(r.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v, want %v", called, tt.wantStatus == http.StatusOK)
			}
		})
	}
}
