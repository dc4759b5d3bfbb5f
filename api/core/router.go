package core

import (
	"time"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/api/handler/blob"
	handlerImages "github.com/anoixa/facility-image-store/api/handler/images"
	"github.com/anoixa/facility-image-store/api/middleware"
	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/internal/auth"
	"github.com/anoixa/facility-image-store/internal/bloburl"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Service        *imagestore.Service
	Registry       *bloburl.Registry
	JWTService     *auth.JWTService
	APIRateLimiter *middleware.IPRateLimiter
	Config         *config.Config
}

// NewRouter 创建 gin 引擎并注册所有路由
func NewRouter(deps *RouterDependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.BuildingHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	_ = router.SetTrustedProxies(nil)

	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	// 请求体上限为批量总上限的两倍
	router.Use(middleware.MaxBytesReader(int64(cfg.UploadMaxBatchTotalMB) * 2 << 20))

	registerBasicRoutes(router, deps)
	registerBlobRoutes(router, deps)
	registerAPIRoutes(router, deps)
	return router
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", NewHealthHandler(deps.Service).Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})
}

// registerBlobRoutes blob URL 载荷对外可读
func registerBlobRoutes(router *gin.Engine, deps *RouterDependencies) {
	blobHandler := blob.NewHandler(deps.Registry)

	blobGroup := router.Group("/blob")
	blobGroup.Use(deps.APIRateLimiter.Middleware())
	{
		blobGroup.GET("/:id", blobHandler.ServeBlob)     // GET /blob/{id}
		blobGroup.DELETE("/:id", blobHandler.RevokeBlob) // DELETE /blob/{id}
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	cfg := deps.Config
	imageHandler := handlerImages.NewHandler(deps.Service, cfg.MaxUploadBytes(), int64(cfg.UploadMaxBatchTotalMB)<<20)
	uploadLimiter := middleware.NewConcurrencyLimiter(int64(cfg.CompressConcurrency) * 2)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		v1.Use(deps.APIRateLimiter.Middleware())
		v1.Use(middleware.BearerAuth(deps.JWTService))
		v1.Use(middleware.RequireBuilding())
		{
			imagesGroup := v1.Group("/images")
			{
				imagesGroup.POST("", uploadLimiter.Middleware(), imageHandler.UploadImage)        // POST /api/v1/images
				imagesGroup.POST("/batch", uploadLimiter.Middleware(), imageHandler.UploadImages) // POST /api/v1/images/batch
				imagesGroup.GET("/load", imageHandler.LoadImage)                                  // GET /api/v1/images/load?path=
				imagesGroup.GET("/exists", imageHandler.ImageExists)                              // GET /api/v1/images/exists?path=
				imagesGroup.DELETE("", imageHandler.DeleteImage)                                  // DELETE /api/v1/images?path=
			}
		}
	}
}
