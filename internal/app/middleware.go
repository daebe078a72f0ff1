package app

import (
	"github.com/selfmap/selfmap-backend/internal/http/middleware"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, svcs Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, svcs.Auth, svcs.Provision),
	}
}
