package core

import (
	"net/http"

	"github.com/anoixa/facility-image-store/api/middleware"
	"github.com/anoixa/facility-image-store/internal/app"
)

// StartServer 创建 http.Server，返回的清理函数停止限流器的后台任务
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.GetConfig()

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	router := NewRouter(&RouterDependencies{
		Service:        container.Service(),
		Registry:       container.Registry(),
		JWTService:     container.JWTService(),
		APIRateLimiter: apiRateLimiter,
		Config:         cfg,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, apiRateLimiter.StopCleanup
}
