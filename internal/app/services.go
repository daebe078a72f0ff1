package app

import (
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/services"
	"github.com/selfmap/selfmap-backend/internal/store"
)

type Services struct {
	Auth          services.AuthService
	Provision     services.ProvisionService
	Quota         services.QuotaService
	Users         services.UsersService
	Systems       services.SystemsService
	Parts         services.PartsService
	Relationships services.RelationshipsService
	Journals      services.JournalsService
	Guide         services.GuideService
	Sessions      services.SessionsService
	Billing       services.BillingService
}

func wireServices(cfg Config, st store.Store, clients Clients, log *logger.Logger) Services {
	log.Info("Wiring services...")

	var auth services.AuthService
	if cfg.UseSupabaseAuth {
		auth = services.NewSupabaseAuthService(st, clients.SupabaseAuth, cfg.SupabaseJWTSecret, log)
	} else {
		auth = services.NewLocalAuthService(st, cfg.JWTSecretKey, cfg.AccessTokenTTL, log)
	}

	provision := services.NewProvisionService(st, log)
	quota := services.NewQuotaService(st, log)

	var guide services.GuideService
	if clients.LLM != nil {
		guide = services.NewGuideService(clients.LLM, log)
	}

	return Services{
		Auth:          auth,
		Provision:     provision,
		Quota:         quota,
		Users:         services.NewUsersService(st, log),
		Systems:       services.NewSystemsService(st, provision, log),
		Parts:         services.NewPartsService(st, quota, log),
		Relationships: services.NewRelationshipsService(st, log),
		Journals:      services.NewJournalsService(st, quota, log),
		Guide:         guide,
		Sessions:      services.NewSessionsService(st, quota, guide, clients.LLM, log),
		Billing:       services.NewBillingService(st, clients.Payments, log),
	}
}
