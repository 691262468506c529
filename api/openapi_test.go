package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// TestOpenAPIDocument 校验内嵌的 OpenAPI 规范本身合法
func TestOpenAPIDocument(t *testing.T) {
	data, err := OpenAPIFS.ReadFile("openapi/openapi.yaml")
	if err != nil {
		t.Fatalf("read embedded spec: %v", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("spec invalid: %v", err)
	}

	// 核心路径必须有文档
	for _, path := range []string{
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/request-moderator",
		"/api/v1/admin/moderator-requests",
		"/api/v1/admin/moderator-requests/{id}/approve",
		"/api/v1/admin/moderator-requests/{id}/reject",
		"/api/v1/admin/moderators",
		"/api/v1/admin/users",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("path %s missing from spec", path)
		}
	}
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux)

	for _, tt := range []struct {
		path        string
		contentType string
	}{
		{"/api/v1/openapi.yaml", "application/yaml"},
		{"/api-docs", "text/html; charset=utf-8"},
	} {
		r := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", tt.path, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("GET %s Content-Type = %q, want %q", tt.path, ct, tt.contentType)
		}
		if w.Body.Len() == 0 {
			t.Errorf("GET %s returned empty body", tt.path)
		}
	}
}
