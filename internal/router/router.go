package router

import (
	"time"

	"lizza/config"
	"lizza/internal/domain"
	"lizza/internal/handler"
	"lizza/internal/livestore"
	"lizza/internal/middleware"
	"lizza/internal/repository"
	"lizza/internal/service"
	"lizza/internal/ws"
	"lizza/pkg/cloudinary"
	"lizza/pkg/pii"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, store *livestore.Store, cloud cloudinary.Client, cipher *pii.Cipher, hub *ws.Hub) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// The tracking ingress gets its own per-employee budget: one ping every
	// couple of seconds is a well-behaved client, anything past that is a
	// runaway loop.
	pingLimit := middleware.RateLimit(middleware.NewRateLimiter(30, 60*time.Second))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	officeRepo := repository.NewOfficeRepository(db)

	// Services. The live store may be nil (no Redis deployed); the presence
	// engine treats that as a first-class degraded mode, so only hand it a
	// non-nil interface value when the store actually exists.
	var live service.LiveStore
	var purger handler.LivePurger
	if store != nil {
		live = store
		purger = store
	}
	authSvc := service.NewAuthService(cfg, userRepo)
	mailSvc := service.NewMailService(&cfg.Mail)
	onboardingSvc := service.NewOnboardingService(userRepo, cipher, cloud, mailSvc)
	presenceSvc := service.NewPresenceService(&cfg.Tracking, userRepo, officeRepo, live, hub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(userRepo)
	trackingHandler := handler.NewTrackingHandler(presenceSvc, store, userRepo)
	managerHandler := handler.NewManagerHandler(userRepo, onboardingSvc)
	adminHandler := handler.NewAdminHandler(userRepo, officeRepo, purger, cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)
	managerMw := middleware.RequireRole(domain.RoleManager, domain.RoleAdmin)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/change-password", authMw, authHandler.ChangePassword)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
		}

		api.POST("/tracking/location", authMw, pingLimit, trackingHandler.UpdateLocation)

		manager := api.Group("/manager")
		manager.Use(authMw, managerMw)
		{
			manager.GET("/employees", managerHandler.MyEmployees)
			manager.POST("/employees", managerHandler.Onboard)
			manager.GET("/live-tracking", trackingHandler.ManagerLiveTracking)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/employees", adminHandler.ListEmployees)
			admin.PUT("/employees/:email", adminHandler.UpdateEmployee)
			admin.DELETE("/employees/:email", adminHandler.DeleteEmployee)
			admin.GET("/locations", adminHandler.ListOffices)
			admin.POST("/locations", adminHandler.AddOffice)
			admin.DELETE("/locations/:id", adminHandler.DeleteOffice)
			admin.GET("/live-tracking", trackingHandler.AdminLiveTracking)
		}
	}

	r.GET("/ws/tracking/:manager_id", ws.UpgradeTrackingWS(&cfg.JWT, hub))

	return r
}
