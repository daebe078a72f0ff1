package app

import (
	"github.com/selfmap/selfmap-backend/internal/http/handlers"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	System        *handlers.SystemHandler
	Part          *handlers.PartHandler
	Relationship  *handlers.RelationshipHandler
	Journal       *handlers.JournalHandler
	Session       *handlers.SessionHandler
	Billing       *handlers.BillingHandler
	Legal         *handlers.LegalHandler
}

func wireHandlers(cfg Config, log *logger.Logger, svcs Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	authMethod := "local"
	if cfg.UseSupabaseAuth {
		authMethod = "supabase"
	}
	return Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, authMethod),
		User:         handlers.NewUserHandler(svcs.Users),
		System:       handlers.NewSystemHandler(svcs.Systems),
		Part:         handlers.NewPartHandler(svcs.Parts),
		Relationship: handlers.NewRelationshipHandler(svcs.Relationships),
		Journal:      handlers.NewJournalHandler(svcs.Journals),
		Session:      handlers.NewSessionHandler(svcs.Sessions),
		Billing:      handlers.NewBillingHandler(svcs.Billing, clients.Payments, log),
		Legal:        handlers.NewLegalHandler(),
	}
}
