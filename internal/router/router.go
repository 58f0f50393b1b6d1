package router

import (
	"context"
	"net/http"

	"github.com/blues/fundchain/internal/handler"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker 依赖健康状态
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// Services 路由依赖
type Services struct {
	Campaigns handler.CampaignService
	Users     handler.UserService
	Auth      handler.AuthService
	Events    handler.EventService
	Stats     handler.StatsService
	Operator  handler.OperatorSource
	Health    HealthChecker
}

func Setup(s Services) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := logic.RegisterValidators(v); err != nil {
			logger.Error("Failed to register validators: %v", err)
		}
	}

	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(handler.RequestID())
	r.Use(handler.AccessLog())
	r.Use(handler.Metrics())
	r.Use(handler.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "fundchain",
		}
		if s.Health != nil {
			status["chain"] = s.Health.GetHealthStatus(c.Request.Context())
		}
		if block, err := s.Events.GetLastProcessedBlock(c.Request.Context()); err == nil {
			status["last_processed_block"] = block
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	campaignHandler := handler.NewCampaignHandler(s.Campaigns)
	userHandler := handler.NewUserHandler(s.Users, s.Campaigns)
	authHandler := handler.NewAuthHandler(s.Auth)
	eventHandler := handler.NewEventHandler(s.Events, s.Stats)

	auth := handler.Auth(s.Auth)
	operator := handler.OperatorOnly(s.Operator)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:address", campaignHandler.GetCampaign)
			campaigns.POST("", auth, operator, campaignHandler.CreateCampaign)
			campaigns.POST("/refresh", auth, operator, campaignHandler.Refresh)
			campaigns.POST("/:address/contribute", auth, operator, campaignHandler.Contribute)
			campaigns.POST("/:address/approve", auth, operator, campaignHandler.Approve)
		}

		users := v1.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/stats", userHandler.GetStats)
			users.GET("/:address", userHandler.GetUser)
			users.POST("/register", auth, operator, userHandler.Register)
		}
		v1.GET("/usernames/:username/available", userHandler.CheckUsername)

		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:address/capabilities", campaignHandler.GetCapabilities)
			wallets.POST("/:address/gate", userHandler.CheckGate)
		}

		admin := v1.Group("/admin", auth, operator)
		{
			admin.PUT("/users/:address/kyc", userHandler.SetKYC)
			admin.POST("/users/:address/ban", userHandler.Ban)
			admin.POST("/users/:address/unban", userHandler.Unban)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/nonce", authHandler.Nonce)
			authGroup.POST("/verify", authHandler.Verify)
			authGroup.GET("/session", auth, authHandler.GetSession)
			authGroup.DELETE("/session", auth, authHandler.Logout)
		}

		v1.GET("/events", eventHandler.GetEvents)
		v1.GET("/stats", eventHandler.GetStats)
	}

	return r
}
