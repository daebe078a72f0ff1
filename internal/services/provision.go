package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

const selfPartDescription = "The centered, compassionate Self that is the goal of IFS therapy."

func selfPartData(systemID string) map[string]any {
	return map[string]any{
		"system_id":   systemID,
		"name":        types.SelfPartName,
		"role":        "Self",
		"description": selfPartDescription,
		"feelings":    []string{"Calm", "curious", "compassionate", "connected", "clear", "confident", "creative", "courageous"},
		"beliefs":     []string{"All parts are welcome. I can hold space for all experiences."},
	}
}

// ProvisionService enforces the account invariants on every
// authenticated request: a local user row exists for the identity, the
// user has exactly one System, and that System has its Self part. It
// is the one place the system self-heals.
type ProvisionService interface {
	EnsureUser(ctx context.Context, identity *Identity) (map[string]any, error)
	EnsureSystem(ctx context.Context, userID string) (map[string]any, error)
}

type provisionService struct {
	store store.Store
	log   *logger.Logger
}

func NewProvisionService(st store.Store, log *logger.Logger) ProvisionService {
	return &provisionService{store: st, log: log.With("service", "ProvisionService")}
}

func (s *provisionService) EnsureUser(ctx context.Context, identity *Identity) (map[string]any, error) {
	userID := identity.UserID.String()
	row, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row != nil {
		return row, nil
	}

	// Hosted accounts can predate their local row: match by email and
	// move the account onto the provider's id, else create a shadow.
	if identity.Email != "" {
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"email": identity.Email})
		if err != nil {
			return nil, apierr.Internal(err)
		}
		if len(rows) > 0 {
			return s.repairUserID(ctx, rows[0], identity)
		}
	}
	return s.createShadowUser(ctx, identity)
}

// repairUserID re-keys an existing local account onto the provider's
// user id: create the row under the new id, re-point its systems, then
// drop the old row.
func (s *provisionService) repairUserID(ctx context.Context, old map[string]any, identity *Identity) (map[string]any, error) {
	oldID := rowString(old, "id")
	s.log.Info("Re-keying local user to provider id", "user_id", identity.UserID.String(), "email", identity.Email)

	data := make(map[string]any, len(old))
	for k, v := range old {
		data[k] = v
	}
	data["id"] = identity.UserID.String()
	row, err := s.store.Create(ctx, store.TableUsers, data)
	if err != nil || row == nil {
		return nil, apierr.Internal(fmt.Errorf("re-keying user failed: %w", err))
	}

	systems, err := s.store.GetAll(ctx, store.TableSystems, map[string]any{"user_id": oldID})
	if err == nil {
		for _, system := range systems {
			if _, uerr := s.store.Update(ctx, store.TableSystems, rowString(system, "id"), map[string]any{"user_id": identity.UserID.String()}); uerr != nil {
				s.log.Error("Failed to re-point system during re-key", "system_id", rowString(system, "id"), "error", uerr)
			}
		}
	}
	if _, derr := s.store.Delete(ctx, store.TableUsers, oldID); derr != nil {
		s.log.Error("Failed to delete stale user row after re-key", "error", derr)
	}
	return row, nil
}

func (s *provisionService) createShadowUser(ctx context.Context, identity *Identity) (map[string]any, error) {
	base := identity.Email
	if meta, ok := identity.Metadata["username"].(string); ok && meta != "" {
		base = meta
	}
	username, err := uniqueUsername(ctx, s.store, base)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	// The placeholder password is never used; credentials live with
	// the hosted provider.
	hash, err := bcrypt.GenerateFromPassword([]byte(randomPassword()), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	row, err := s.store.Create(ctx, store.TableUsers, map[string]any{
		"id":            identity.UserID.String(),
		"username":      username,
		"email":         identity.Email,
		"password_hash": string(hash),
		"first_name":    firstNameFromMetadata(identity.Metadata),
	})
	if err != nil || row == nil {
		return nil, apierr.Internal(fmt.Errorf("shadow user creation failed: %w", err))
	}
	s.log.Info("Created shadow user", "user_id", identity.UserID.String(), "username", username)
	return row, nil
}

func (s *provisionService) EnsureSystem(ctx context.Context, userID string) (map[string]any, error) {
	systems, err := s.store.GetAll(ctx, store.TableSystems, map[string]any{"user_id": userID})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(systems) == 0 {
		system, err := s.store.Create(ctx, store.TableSystems, map[string]any{"user_id": userID})
		if err != nil || system == nil {
			return nil, apierr.Internal(fmt.Errorf("system creation failed: %w", err))
		}
		systemID := rowString(system, "id")
		if _, perr := s.store.Create(ctx, store.TableParts, selfPartData(systemID)); perr != nil {
			s.log.Error("Failed to create Self part for new system", "system_id", systemID, "error", perr)
		} else {
			s.log.Info("Created system with Self part", "system_id", systemID, "user_id", userID)
		}
		return system, nil
	}

	system := systems[0]
	systemID := rowString(system, "id")
	selves, err := s.store.GetAll(ctx, store.TableParts, map[string]any{"system_id": systemID, "role": "Self"})
	if err != nil {
		return system, nil
	}
	if len(selves) == 0 {
		s.log.Warn("System missing its Self part, recreating", "system_id", systemID)
		if _, perr := s.store.Create(ctx, store.TableParts, selfPartData(systemID)); perr != nil {
			s.log.Error("Failed to recreate Self part", "system_id", systemID, "error", perr)
		}
	}
	return system, nil
}
