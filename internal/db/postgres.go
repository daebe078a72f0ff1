package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/types"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to Postgres using the POSTGRES_* environment variables.
// When SQLITE_PATH is set it opens SQLite instead, which is what dev
// setups use.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	if path := envutil.String("SQLITE_PATH", ""); path != "" {
		serviceLog.Info("Connecting to SQLite...", "path", path)
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	}

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "selfmap")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	// Message embeddings need pgvector.
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "vector";`).Error; err != nil {
		serviceLog.Warn("pgvector extension unavailable, similarity queries will fail", "error", err)
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

// NewWithDB wraps an already-open GORM handle. Tests use this with an
// in-memory SQLite database.
func NewWithDB(gdb *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: gdb, log: log.With("service", "DBService")}
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.System{},
		&types.Part{},
		&types.Relationship{},
		&types.Journal{},
		&types.GuidedSession{},
		&types.SessionMessage{},
		// Deprecated conversation schema, kept migrated for old rows.
		&types.PartConversation{},
		&types.ConversationMessage{},
		&types.PartPersonalityVector{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
