package router

import (
	"net/http"
	"time"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/handler"
	"github.com/batchbook/batchbook-backend/internal/middleware"
	"github.com/batchbook/batchbook-backend/internal/response"
	"github.com/batchbook/batchbook-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Institute *handler.InstituteHandler
	Staff     *handler.StaffHandler
	Memory    *handler.MemoryHandler
	Admin     *handler.AdminHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	identityService *service.IdentityService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// Restrict CORS to the configured origins; allow all in dev when none
	// are configured.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Multipart bodies above this spill to temp files instead of RAM.
	router.MaxMultipartMemory = 8 << 20

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Signup and login sit behind a per-IP limiter.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
	}

	institutes := router.Group("/api/v1/institutes")
	{
		institutes.POST("", authLimiter.Middleware(), handlers.Institute.Register)
		institutes.GET("", handlers.Institute.ListApproved)
		institutes.GET("/profile", middleware.RequireAuth(authService), handlers.Institute.Profile)
		institutes.POST("/verify-login", authLimiter.Middleware(), handlers.Institute.VerifyLogin)
	}

	staff := router.Group("/api/v1/staff")
	{
		staff.POST("", authLimiter.Middleware(), middleware.RequireAuth(authService), handlers.Staff.Register)
		staff.GET("/status", middleware.RequireAuth(authService), handlers.Staff.Status)
		staff.POST("/verify-login", authLimiter.Middleware(), handlers.Staff.VerifyLogin)
	}

	memories := router.Group("/api/v1/memories")
	{
		memories.GET("", middleware.OptionalAuth(authService), handlers.Memory.List)
		memories.GET("/:id", middleware.OptionalAuth(authService), handlers.Memory.Get)
		memories.GET("/:id/comments", middleware.OptionalAuth(authService), handlers.Memory.ListComments)

		memories.POST("",
			middleware.RequireAuth(authService),
			middleware.RequireUploader(identityService),
			handlers.Memory.Create,
		)
		memories.PUT("/:id", middleware.RequireAuth(authService), handlers.Memory.Update)
		memories.DELETE("/:id", middleware.RequireAuth(authService), handlers.Memory.Delete)
		memories.POST("/:id/like", middleware.RequireAuth(authService), handlers.Memory.ToggleLike)
		memories.POST("/:id/comments", middleware.RequireAuth(authService), handlers.Memory.AddComment)
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.RequireAuth(authService), middleware.RequirePlatformAdmin(cfg))
	{
		admin.GET("/institutes", handlers.Admin.ListInstitutes)
		admin.POST("/institutes/:id/approve", handlers.Admin.ApproveInstitute)
		admin.POST("/institutes/:id/reject", handlers.Admin.RejectInstitute)
		admin.GET("/statistics", handlers.Admin.Statistics)
	}

	return router
}
