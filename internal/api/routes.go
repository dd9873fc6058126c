package api

import (
	"github.com/gin-gonic/gin"
	"github.com/memorialops/cemetery-gin/internal/auth"
	"github.com/memorialops/cemetery-gin/internal/config"
	"github.com/memorialops/cemetery-gin/internal/container"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/memorialops/cemetery-gin/docs" // 导入生成的 docs 包
)

// SetupRoutes 配置路由
func SetupRoutes(c *container.Container, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(&cfg.CORS))
	router.Use(RateLimitMiddleware(100, 200))

	// 健康检查
	healthController := NewHealthController(c.DB())
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// Swagger UI 路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	actionController := NewActionController(c.SubmissionService(), c.ReviewService(), c.QueryService())
	statsController := NewStatsController(c.StatsService())

	// API v1 路由组,全部需要认证
	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(c.TokenValidator()))
	{
		actions := v1.Group("/actions")
		{
			actions.GET("/check", actionController.Check)
			actions.POST("", actionController.Submit)
			actions.GET("/mine", actionController.ListMine)

			// 管理端
			admin := actions.Group("")
			admin.Use(auth.RequireAdmin())
			{
				admin.GET("", actionController.List)
				admin.GET("/stats", statsController.Get)
				admin.POST("/:id/review", actionController.Review)
				admin.POST("/:id/execute", actionController.Execute)
			}

			// 详情路由放最后,避免吞掉 /stats 等静态段
			actions.GET("/:id", actionController.Get)
		}
	}

	return router
}
