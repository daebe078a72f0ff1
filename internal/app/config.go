package app

import (
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type Config struct {
	// UseSupabaseDB selects the hosted REST persistence backend over
	// local GORM; UseSupabaseAuth selects GoTrue over local JWTs. The
	// two flags are independent.
	UseSupabaseDB   bool
	UseSupabaseAuth bool

	JWTSecretKey string
	// SupabaseJWTSecret enables offline verification of provider
	// tokens.
	SupabaseJWTSecret string
	AccessTokenTTL    time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		UseSupabaseDB:     envutil.Bool("USE_SUPABASE_DB", false),
		UseSupabaseAuth:   envutil.Bool("USE_SUPABASE_AUTH", false),
		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		SupabaseJWTSecret: envutil.String("SUPABASE_JWT_SECRET", ""),
		AccessTokenTTL:    envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
	}
	log.Info("Loaded configuration",
		"use_supabase_db", cfg.UseSupabaseDB,
		"use_supabase_auth", cfg.UseSupabaseAuth,
	)
	return cfg
}
