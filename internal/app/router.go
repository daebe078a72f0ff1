package app

import (
	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/server"
)

func wireRouter(log *logger.Logger, h Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:                 log,
		AuthMiddleware:      mw.Auth,
		AuthHandler:         h.Auth,
		UserHandler:         h.User,
		SystemHandler:       h.System,
		PartHandler:         h.Part,
		RelationshipHandler: h.Relationship,
		JournalHandler:      h.Journal,
		SessionHandler:      h.Session,
		BillingHandler:      h.Billing,
		LegalHandler:        h.Legal,
	})
}
