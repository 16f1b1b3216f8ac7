package router

import (
	"seogen/internal/config"
	"seogen/internal/handler"
	"seogen/internal/middleware"
	"seogen/internal/repository"
	"seogen/internal/service"
	"seogen/internal/utils"
	"seogen/pkg/llm_client"
	"seogen/pkg/redis_limiter"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "SEO大纲生成系统 API",
			"version": "1.0.0",
		})
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	// 单用户同时只允许一个生成流,TTL与流超时一致兜底清理
	var limiter *redis_limiter.RedisLimiter
	if redisClient != nil {
		limiter = redis_limiter.NewRedisLimiter(redisClient, 1, "generate:user:", cfg.LLM.GetStreamTimeout())
	}

	// 模型客户端每次请求时创建,API Key从环境变量读取
	newStreamer := func() (service.Streamer, error) {
		return llm_client.NewLLMClient(&cfg.LLM)
	}

	// 初始化Service
	authService := service.NewAuthService(userRepo, jwtManager, cfg)
	quotaService := service.NewQuotaService(generationRepo)
	generationService := service.NewGenerationService(cfg, newStreamer, limiter)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	generationHandler := handler.NewGenerationHandler(generationService, quotaService, logger)
	historyHandler := handler.NewHistoryHandler(generationRepo, quotaService)
	adminHandler := handler.NewAdminHandler(userRepo, generationRepo)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 模型服务探活(仅运维诊断用)
		api.GET("/test", generationHandler.Probe)

		// 流式生成接口使用纯文本错误格式的认证中间件
		api.POST("/generate", middleware.StreamAuthMiddleware(jwtManager), generationHandler.Generate)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 用户信息
			authorized.GET("/me", authHandler.GetMe)
			authorized.POST("/logout", authHandler.Logout)

			// 生成历史与额度
			authorized.GET("/generations", historyHandler.ListGenerations)
			authorized.POST("/generations", historyHandler.CreateGeneration)
			authorized.DELETE("/generations/:id", historyHandler.DeleteGeneration)
			authorized.GET("/credits", historyHandler.GetCredits)

			// 管理员接口
			adminGroup := authorized.Group("/admin")
			adminGroup.Use(middleware.AdminMiddleware())
			{
				adminGroup.GET("/users", adminHandler.ListUsers)
				adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			}
		}
	}

	return r
}
