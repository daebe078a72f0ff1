package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

// PartInput carries the client-writable part fields. List fields are
// pointers so an omitted list is distinguishable from an emptied one.
type PartInput struct {
	Name        string    `json:"name"`
	Role        *string   `json:"role"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	SystemID    string    `json:"system_id"`
	Feelings    *[]string `json:"feelings"`
	Beliefs     *[]string `json:"beliefs"`
	Triggers    *[]string `json:"triggers"`
	Needs       *[]string `json:"needs"`
}

type PartsService interface {
	List(ctx context.Context, userID, systemID string) ([]map[string]any, error)
	Get(ctx context.Context, userID, partID string) (map[string]any, error)
	Create(ctx context.Context, userID string, input *PartInput) (map[string]any, error)
	Update(ctx context.Context, userID, partID string, input *PartInput) (map[string]any, error)
	Delete(ctx context.Context, userID, partID string) error
}

type partsService struct {
	store store.Store
	quota QuotaService
	log   *logger.Logger
}

func NewPartsService(st store.Store, quota QuotaService, log *logger.Logger) PartsService {
	return &partsService{store: st, quota: quota, log: log.With("service", "PartsService")}
}

func (s *partsService) List(ctx context.Context, userID, systemID string) ([]map[string]any, error) {
	if systemID == "" {
		return nil, apierr.Validation(fmt.Errorf("system_id is required"), map[string]string{"system_id": "system_id is required"})
	}
	if _, aerr := s.ownedSystem(ctx, userID, systemID); aerr != nil {
		return nil, aerr
	}
	parts, err := s.store.GetAll(ctx, store.TableParts, map[string]any{"system_id": systemID})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return parts, nil
}

func (s *partsService) Get(ctx context.Context, userID, partID string) (map[string]any, error) {
	part, aerr := s.ownedPart(ctx, userID, partID)
	if aerr != nil {
		return nil, aerr
	}
	return part, nil
}

func (s *partsService) Create(ctx context.Context, userID string, input *PartInput) (map[string]any, error) {
	if input.Name == "" {
		return nil, apierr.Validation(fmt.Errorf("name is required"), map[string]string{"name": "Name is required"})
	}
	if input.SystemID == "" {
		return nil, apierr.Validation(fmt.Errorf("system_id is required"), map[string]string{"system_id": "system_id is required"})
	}
	if _, aerr := s.ownedSystem(ctx, userID, input.SystemID); aerr != nil {
		return nil, aerr
	}
	if err := s.quota.CheckPartAllowance(ctx, userID, input.SystemID); err != nil {
		return nil, err
	}

	data := map[string]any{
		"name":      input.Name,
		"system_id": input.SystemID,
	}
	applyPartFields(data, input)
	part, err := s.store.Create(ctx, store.TableParts, data)
	if err != nil || part == nil {
		return nil, apierr.Internal(fmt.Errorf("part creation failed: %w", err))
	}
	s.log.Info("Created part", "system_id", input.SystemID)
	return part, nil
}

func (s *partsService) Update(ctx context.Context, userID, partID string, input *PartInput) (map[string]any, error) {
	if input.Name == "" {
		return nil, apierr.Validation(fmt.Errorf("name is required"), map[string]string{"name": "Name is required"})
	}
	if _, err := s.ownedPart(ctx, userID, partID); err != nil {
		return nil, err
	}

	// system_id is immutable after creation.
	data := map[string]any{
		"name":       input.Name,
		"updated_at": time.Now().UTC(),
	}
	applyPartFields(data, input)
	part, err := s.store.Update(ctx, store.TableParts, partID, data)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if part == nil {
		return nil, apierr.NotFound("part_not_found", fmt.Errorf("part not found"))
	}
	return part, nil
}

func (s *partsService) Delete(ctx context.Context, userID, partID string) error {
	part, err := s.ownedPart(ctx, userID, partID)
	if err != nil {
		return err
	}
	if rowString(part, "name") == types.SelfPartName {
		return apierr.New(http.StatusForbidden, "self_part_protected", fmt.Errorf("the Self part cannot be deleted"))
	}
	ok, derr := s.store.Delete(ctx, store.TableParts, partID)
	if derr != nil {
		return apierr.Internal(derr)
	}
	if !ok {
		return apierr.NotFound("part_not_found", fmt.Errorf("part not found"))
	}
	s.log.Info("Deleted part", "part_name", rowString(part, "name"))
	return nil
}

func applyPartFields(data map[string]any, input *PartInput) {
	if input.Role != nil {
		data["role"] = *input.Role
	}
	if input.Description != nil {
		data["description"] = *input.Description
	}
	if input.ImageURL != nil {
		data["image_url"] = *input.ImageURL
	}
	if input.Feelings != nil {
		data["feelings"] = *input.Feelings
	}
	if input.Beliefs != nil {
		data["beliefs"] = *input.Beliefs
	}
	if input.Triggers != nil {
		data["triggers"] = *input.Triggers
	}
	if input.Needs != nil {
		data["needs"] = *input.Needs
	}
}

func (s *partsService) ownedSystem(ctx context.Context, userID, systemID string) (map[string]any, *apierr.Error) {
	system, err := s.store.GetByID(ctx, store.TableSystems, systemID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if system == nil || rowString(system, "user_id") != userID {
		return nil, apierr.NotFound("system_not_found", fmt.Errorf("system not found"))
	}
	return system, nil
}

func (s *partsService) ownedPart(ctx context.Context, userID, partID string) (map[string]any, *apierr.Error) {
	part, err := s.store.GetByID(ctx, store.TableParts, partID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if part == nil {
		return nil, apierr.NotFound("part_not_found", fmt.Errorf("part not found"))
	}
	if _, aerr := s.ownedSystem(ctx, userID, rowString(part, "system_id")); aerr != nil {
		return nil, apierr.NotFound("part_not_found", fmt.Errorf("part not found"))
	}
	return part, nil
}
