package services

import (
	"context"
	"fmt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
)

// profileFields are the only user columns a client may change.
var profileFields = []string{"first_name", "avatar_url", "username"}

type UsersService interface {
	Me(ctx context.Context, userID string) (map[string]any, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]any) (map[string]any, error)
}

type usersService struct {
	store store.Store
	log   *logger.Logger
}

func NewUsersService(st store.Store, log *logger.Logger) UsersService {
	return &usersService{store: st, log: log.With("service", "UsersService")}
}

func (s *usersService) Me(ctx context.Context, userID string) (map[string]any, error) {
	row, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	return SanitizeUser(row), nil
}

func (s *usersService) UpdateProfile(ctx context.Context, userID string, updates map[string]any) (map[string]any, error) {
	data := make(map[string]any)
	for _, field := range profileFields {
		if v, ok := updates[field]; ok {
			data[field] = v
		}
	}
	if len(data) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no updatable fields"), map[string]string{"body": "No updatable fields provided"})
	}
	if username, ok := data["username"].(string); ok {
		if username == "" {
			return nil, apierr.Validation(fmt.Errorf("empty username"), map[string]string{"username": "Username cannot be empty"})
		}
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"username": username})
		if err != nil {
			return nil, apierr.Internal(err)
		}
		if len(rows) > 0 && rowString(rows[0], "id") != userID {
			return nil, apierr.Validation(fmt.Errorf("username taken"), map[string]string{"username": "Username already taken"})
		}
	}

	row, err := s.store.Update(ctx, store.TableUsers, userID, data)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	s.log.Info("Updated user profile", "user_id", userID)
	return SanitizeUser(row), nil
}
