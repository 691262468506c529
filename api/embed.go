// Package api OpenAPI 文档与文档站点
package api

import (
	"embed"
	"net/http"
)

//go:embed openapi/*.yaml
var OpenAPIFS embed.FS

//go:embed docs/index.html
var DocsFS embed.FS

// RegisterRoutes 注册文档路由
//
//   - GET /api/v1/openapi.yaml - OpenAPI 规范
//   - GET /api-docs            - 交互式文档页面
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := OpenAPIFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			http.Error(w, "spec unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)
	})

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, r *http.Request) {
		data, err := DocsFS.ReadFile("docs/index.html")
		if err != nil {
			http.Error(w, "docs unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})
}
