package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 5 * time.Second

// HealthHandler 检查存储后端
type HealthHandler struct {
	service *imagestore.Service
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(service *imagestore.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

// Handle GET /health
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	storageStatus := checkStorageHealth(ctx, h.service)
	mirrorStatus := checkMirrorHealth(ctx, h.service)
	httpStatus := http.StatusOK
	status := "ok"
	if storageStatus != "ok" {
		httpStatus = http.StatusServiceUnavailable
		status = "degraded"
	} else if mirrorStatus != "ok" && mirrorStatus != "not configured" {
		// 镜像只是副本，失败时仍然可以服务
		status = "degraded"
	}

	c.JSON(httpStatus, gin.H{
		"status":   status,
		"uptime":   time.Since(startTime).Round(time.Second).String(),
		"version":  config.Version,
		"platform": h.service.Platform().String(),
		"checks": gin.H{
			"storage": storageStatus,
			"mirror":  mirrorStatus,
		},
	})
}

func checkStorageHealth(ctx context.Context, service *imagestore.Service) string {
	if service == nil {
		return "not initialized"
	}
	if err := service.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkMirrorHealth(ctx context.Context, service *imagestore.Service) string {
	if service == nil {
		return "not configured"
	}
	checked, err := service.MirrorHealth(ctx)
	if !checked {
		return "not configured"
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
