package services

import (
	"context"
	"fmt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

type SystemsService interface {
	// GetPrimary returns the user's system, creating it (with its Self
	// part) on first access.
	GetPrimary(ctx context.Context, userID string) (map[string]any, error)
	GetByID(ctx context.Context, userID, systemID string) (map[string]any, error)
	// Overview is the system row plus its full parts list and
	// per-resource counts.
	Overview(ctx context.Context, userID string) (map[string]any, error)
	// Reset deletes every part except Self, and all relationships and
	// journals.
	Reset(ctx context.Context, userID string) error
}

type systemsService struct {
	store     store.Store
	provision ProvisionService
	log       *logger.Logger
}

func NewSystemsService(st store.Store, provision ProvisionService, log *logger.Logger) SystemsService {
	return &systemsService{store: st, provision: provision, log: log.With("service", "SystemsService")}
}

func (s *systemsService) GetPrimary(ctx context.Context, userID string) (map[string]any, error) {
	system, err := s.provision.EnsureSystem(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withPartsCount(ctx, system), nil
}

func (s *systemsService) GetByID(ctx context.Context, userID, systemID string) (map[string]any, error) {
	system, err := s.store.GetByID(ctx, store.TableSystems, systemID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if system == nil || rowString(system, "user_id") != userID {
		return nil, apierr.NotFound("system_not_found", fmt.Errorf("system not found"))
	}
	return s.withPartsCount(ctx, system), nil
}

func (s *systemsService) Overview(ctx context.Context, userID string) (map[string]any, error) {
	system, err := s.provision.EnsureSystem(ctx, userID)
	if err != nil {
		return nil, err
	}
	systemID := rowString(system, "id")

	parts, perr := s.store.GetAll(ctx, store.TableParts, map[string]any{"system_id": systemID})
	if perr != nil {
		return nil, apierr.Internal(perr)
	}
	relationshipsCount, rerr := s.store.Count(ctx, store.TableRelationships, map[string]any{"system_id": systemID})
	if rerr != nil {
		return nil, apierr.Internal(rerr)
	}
	journalsCount, jerr := s.store.Count(ctx, store.TableJournals, map[string]any{"system_id": systemID})
	if jerr != nil {
		return nil, apierr.Internal(jerr)
	}

	out := make(map[string]any, len(system)+4)
	for k, v := range system {
		out[k] = v
	}
	out["parts"] = parts
	out["parts_count"] = int64(len(parts))
	out["relationships_count"] = relationshipsCount
	out["journals_count"] = journalsCount
	return out, nil
}

func (s *systemsService) Reset(ctx context.Context, userID string) error {
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return aerr
	}
	systemID := rowString(system, "id")

	relationships, err := s.store.GetAll(ctx, store.TableRelationships, map[string]any{"system_id": systemID})
	if err != nil {
		return apierr.Internal(err)
	}
	for _, rel := range relationships {
		if _, derr := s.store.Delete(ctx, store.TableRelationships, rowString(rel, "id")); derr != nil {
			return apierr.Internal(derr)
		}
	}

	journals, err := s.store.GetAll(ctx, store.TableJournals, map[string]any{"system_id": systemID})
	if err != nil {
		return apierr.Internal(err)
	}
	for _, journal := range journals {
		if _, derr := s.store.Delete(ctx, store.TableJournals, rowString(journal, "id")); derr != nil {
			return apierr.Internal(derr)
		}
	}

	parts, err := s.store.GetAll(ctx, store.TableParts, map[string]any{"system_id": systemID})
	if err != nil {
		return apierr.Internal(err)
	}
	for _, part := range parts {
		if rowString(part, "name") == types.SelfPartName {
			continue
		}
		if _, derr := s.store.Delete(ctx, store.TableParts, rowString(part, "id")); derr != nil {
			return apierr.Internal(derr)
		}
	}

	s.log.Info("Reset system", "system_id", systemID, "user_id", userID)
	return nil
}

func (s *systemsService) withPartsCount(ctx context.Context, system map[string]any) map[string]any {
	out := make(map[string]any, len(system)+1)
	for k, v := range system {
		out[k] = v
	}
	count, err := s.store.Count(ctx, store.TableParts, map[string]any{"system_id": rowString(system, "id")})
	if err != nil {
		s.log.Error("Failed to count parts for system", "system_id", rowString(system, "id"), "error", err)
	} else {
		out["parts_count"] = count
	}
	return out
}

// systemForUser is the shared tenancy lookup used by the resource
// services: every part, relationship, and journal hangs off the
// caller's single system.
func systemForUser(ctx context.Context, st store.Store, userID string) (map[string]any, *apierr.Error) {
	systems, err := st.GetAll(ctx, store.TableSystems, map[string]any{"user_id": userID})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(systems) == 0 {
		return nil, apierr.NotFound("system_not_found", fmt.Errorf("system not found"))
	}
	return systems[0], nil
}
