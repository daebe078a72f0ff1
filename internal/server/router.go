package server

import (
	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/handlers"
	"github.com/selfmap/selfmap-backend/internal/http/middleware"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log                 *logger.Logger
	AuthMiddleware      *middleware.AuthMiddleware
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	SystemHandler       *handlers.SystemHandler
	PartHandler         *handlers.PartHandler
	RelationshipHandler *handlers.RelationshipHandler
	JournalHandler      *handlers.JournalHandler
	SessionHandler      *handlers.SessionHandler
	BillingHandler      *handlers.BillingHandler
	LegalHandler        *handlers.LegalHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/refresh-token", cfg.AuthHandler.Refresh)
		// Stripe authenticates webhooks by signature, not bearer token.
		api.POST("/webhook/stripe", cfg.BillingHandler.Webhook)

		api.GET("/legal/privacy-policy", cfg.LegalHandler.PrivacyPolicy)
		api.GET("/legal/terms-of-service", cfg.LegalHandler.TermsOfService)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Auth
		protected.POST("/auth/logout", cfg.AuthHandler.Logout)

		// User
		protected.GET("/user", cfg.UserHandler.GetMe)
		protected.PUT("/user", cfg.UserHandler.UpdateMe)

		// System
		protected.GET("/system", cfg.SystemHandler.GetPrimary)
		protected.PUT("/system", cfg.SystemHandler.UpdatePrimary)
		protected.GET("/system/overview", cfg.SystemHandler.Overview)
		protected.POST("/system/reset", cfg.SystemHandler.Reset)
		protected.GET("/system/:system_id", cfg.SystemHandler.GetByID)

		// Parts
		protected.GET("/parts", cfg.PartHandler.List)
		protected.POST("/parts", cfg.PartHandler.Create)
		protected.GET("/parts/:part_id", cfg.PartHandler.Get)
		protected.PUT("/parts/:part_id", cfg.PartHandler.Update)
		protected.DELETE("/parts/:part_id", cfg.PartHandler.Delete)

		// Relationships
		protected.GET("/relationships", cfg.RelationshipHandler.List)
		protected.POST("/relationships", cfg.RelationshipHandler.Create)
		protected.GET("/relationships/:relationship_id", cfg.RelationshipHandler.Get)
		protected.PUT("/relationships/:relationship_id", cfg.RelationshipHandler.Update)
		protected.DELETE("/relationships/:relationship_id", cfg.RelationshipHandler.Delete)

		// Journals
		protected.GET("/journals", cfg.JournalHandler.List)
		protected.POST("/journals", cfg.JournalHandler.Create)
		protected.GET("/journals/:journal_id", cfg.JournalHandler.Get)
		protected.PUT("/journals/:journal_id", cfg.JournalHandler.Update)
		protected.DELETE("/journals/:journal_id", cfg.JournalHandler.Delete)

		// Guided sessions
		protected.GET("/guided-sessions", cfg.SessionHandler.List)
		protected.POST("/guided-sessions", cfg.SessionHandler.Create)
		protected.GET("/guided-sessions/:session_id", cfg.SessionHandler.Get)
		protected.PUT("/guided-sessions/:session_id", cfg.SessionHandler.Update)
		protected.PATCH("/guided-sessions/:session_id", cfg.SessionHandler.Update)
		protected.DELETE("/guided-sessions/:session_id", cfg.SessionHandler.Delete)
		protected.POST("/guided-sessions/:session_id/messages", cfg.SessionHandler.AddMessage)
		protected.GET("/session-messages/similar", cfg.SessionHandler.SimilarMessages)

		// Billing
		protected.POST("/create-checkout-session", cfg.BillingHandler.CreateCheckoutSession)
		protected.POST("/create-portal-session", cfg.BillingHandler.CreatePortalSession)
	}

	return router
}
