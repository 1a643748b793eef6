package router

import (
	"errors"
	"time"

	"brokerdesk/internal/config"
	"brokerdesk/internal/handler"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/middleware"
	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// notifier receives every notification the services raise; the server passes
// the worker dispatcher. rdb may be nil, in which case the in-flight guard is
// process local.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notifier service.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var guard infra.Guard
	if rdb != nil {
		guard = infra.NewRedisGuard(rdb, cfg.GuardTTL)
	} else {
		guard = infra.NewMemoryGuard()
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	contractRepo := repository.NewContractRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	roster := service.NewRoster(userRepo, cfg.CacheTTL)
	authSvc := service.NewAuthService(userRepo, cfg)
	userSvc := service.NewUserService(userRepo, approvalRepo, roster, guard, notifier)
	contractSvc := service.NewContractService(contractRepo, propertyRepo, roster, guard, notifier, cfg)
	propertySvc := service.NewPropertyService(propertyRepo, roster, notifier, cfg.CacheTTL)
	notificationSvc := service.NewNotificationService(notificationRepo, roster)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, userSvc)
	usersH := handler.NewUsersHandler(userSvc, contractSvc)
	contractsH := handler.NewContractsHandler(contractSvc)
	propertiesH := handler.NewPropertiesHandler(propertySvc)
	notificationsH := handler.NewNotificationsHandler(notificationSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. The token only identifies the caller; role and status
	// come from the stored account on every request.
	denied := func(err error) bool {
		return errors.Is(err, service.ErrForbidden) || errors.Is(err, service.ErrNotFound)
	}
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.LoadActor(userSvc.Actor, denied))
	{
		v1.GET("/auth/me", authH.Me)

		contracts := v1.Group("/contracts")
		{
			contracts.GET("", contractsH.List)
			contracts.GET("/pending", contractsH.Pending)
			contracts.GET("/my-contracts", contractsH.Mine)
			contracts.GET("/statistics", contractsH.Statistics)
			contracts.GET("/commissions", contractsH.Commissions)
			contracts.GET("/commissions/:userId", contractsH.AgentCommissions)
			contracts.GET("/:id", contractsH.Get)
			contracts.GET("/:id/statement", contractsH.Statement)
			contracts.POST("", contractsH.Create)
			contracts.PUT("/:id", contractsH.Update)
			contracts.POST("/:id/approve", middleware.RequireRole(model.RoleSuperAdmin), contractsH.Approve)
			contracts.POST("/:id/reject", middleware.RequireRole(model.RoleSuperAdmin), contractsH.Reject)
			contracts.POST("/:id/pay", middleware.RequireRole(model.RoleSuperAdmin), contractsH.Pay)
		}

		users := v1.Group("/users")
		{
			users.GET("", usersH.List)
			users.GET("/pending-approvals", middleware.RequireRole(model.RoleSuperAdmin), usersH.PendingApprovals)
			users.GET("/statistics", usersH.Statistics)
			users.GET("/team/:id", usersH.Team)
			users.GET("/hierarchy/:id", usersH.Hierarchy)
			users.GET("/:id/performance", usersH.Performance)
			users.GET("/:id", usersH.Get)
			users.POST("", usersH.Create)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Delete)
		}

		v1.PUT("/approvals/:id", middleware.RequireRole(model.RoleSuperAdmin), usersH.DecideApproval)

		props := v1.Group("/properties")
		{
			props.GET("", propertiesH.List)
			props.GET("/my-properties", propertiesH.Mine)
			props.GET("/team-properties", propertiesH.Team)
			props.GET("/statistics", propertiesH.Statistics)
			props.GET("/:id", propertiesH.Get)
			props.POST("", propertiesH.Create)
			props.PUT("/:id", propertiesH.Update)
			props.DELETE("/:id", propertiesH.Delete)
		}

		notifs := v1.Group("/notifications")
		{
			notifs.GET("", notificationsH.List)
			notifs.GET("/statistics", notificationsH.Statistics)
			notifs.PUT("/read-all", notificationsH.MarkAllRead)
			notifs.PUT("/:id/read", notificationsH.MarkRead)
			notifs.POST("", middleware.RequireRole(model.RoleSuperAdmin), notificationsH.Create)
			notifs.DELETE("/:id", notificationsH.Delete)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
