// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"role-admin/internal/apiserver/auth"
	"role-admin/internal/apiserver/roles"
	"role-admin/internal/apiserver/server"
	"role-admin/internal/config"
	"role-admin/internal/shared/eventbus"
	redisbus "role-admin/internal/shared/eventbus/redis"
	"role-admin/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 configs/{env}.yaml）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化 MongoDB（持久化业务数据，含索引创建）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化事件总线（Redis Pub/Sub；未配置则禁用实时推送）
	var bus eventbus.EventBus
	if cfg.RedisURL != "" {
		redisStore, err := redisbus.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		bus = redisStore
		log.Println("Connected to Redis")
	} else {
		bus = eventbus.NewNoOpEventBus()
		log.Println("Redis not configured, moderation events disabled")
	}
	defer bus.Close()

	// 播种内置角色，然后确保管理员账号存在
	registry := roles.NewRegistry(store)
	if err := registry.Seed(context.Background()); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}
	if err := auth.EnsureAdminUser(store, registry, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, registry, bus, cfg.Auth)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
