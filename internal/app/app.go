package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/db"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
)

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Cfg      Config
	Store    store.Store
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clients, err := wireClients(cfg, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	st, err := wireStore(cfg, clients, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init store: %w", err)
	}

	serviceset := wireServices(cfg, st, clients, log)
	handlerset := wireHandlers(cfg, log, serviceset, clients)
	middlewareset := wireMiddleware(log, serviceset)
	router := wireRouter(log, handlerset, middlewareset)

	return &App{
		Log:      log,
		Router:   router,
		Cfg:      cfg,
		Store:    st,
		Services: serviceset,
	}, nil
}

// wireStore picks the persistence backend. The local arm owns its
// schema and migrates on boot; the hosted arm's schema is managed in
// Supabase.
func wireStore(cfg Config, clients Clients, log *logger.Logger) (store.Store, error) {
	if cfg.UseSupabaseDB {
		return store.NewSupabase(clients.Supabase, log), nil
	}
	pg, err := db.New(log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return store.NewGorm(pg.DB(), log), nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
