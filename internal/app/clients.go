package app

import (
	"github.com/selfmap/selfmap-backend/internal/platform/llm"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/platform/payments"
	"github.com/selfmap/selfmap-backend/internal/platform/supabase"
)

// Clients are the external service handles. Optional clients are nil
// when unconfigured; the services they feed degrade gracefully.
type Clients struct {
	Supabase     *supabase.Client
	SupabaseAuth *supabase.AuthClient
	LLM          llm.Client
	Payments     payments.Client
}

func wireClients(cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	var clients Clients

	if cfg.UseSupabaseDB {
		client, err := supabase.NewClient(log)
		if err != nil {
			return clients, err
		}
		clients.Supabase = client
	}
	if cfg.UseSupabaseAuth {
		authClient, err := supabase.NewAuthClient(log)
		if err != nil {
			return clients, err
		}
		clients.SupabaseAuth = authClient
	}

	llmClient, err := llm.NewClient(llm.ConfigFromEnv(), log)
	if err != nil {
		log.Warn("LLM client unavailable, guide replies and embeddings disabled", "error", err)
	} else {
		clients.LLM = llmClient
	}

	payClient, err := payments.NewClient(log)
	if err != nil {
		log.Warn("Stripe client unavailable, billing disabled", "error", err)
	} else {
		clients.Payments = payClient
	}
	return clients, nil
}
