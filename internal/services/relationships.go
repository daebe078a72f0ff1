package services

import (
	"context"
	"fmt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
)

// RelationshipInput uses the API's source/target vocabulary; the
// storage columns are part1_id/part2_id.
type RelationshipInput struct {
	SourceID         string  `json:"source_id"`
	TargetID         string  `json:"target_id"`
	RelationshipType string  `json:"relationship_type"`
	Description      *string `json:"description"`
}

type RelationshipsService interface {
	List(ctx context.Context, userID string) ([]map[string]any, error)
	Get(ctx context.Context, userID, relationshipID string) (map[string]any, error)
	Create(ctx context.Context, userID string, input *RelationshipInput) (map[string]any, error)
	Update(ctx context.Context, userID, relationshipID string, input *RelationshipInput) (map[string]any, error)
	Delete(ctx context.Context, userID, relationshipID string) error
}

type relationshipsService struct {
	store store.Store
	log   *logger.Logger
}

func NewRelationshipsService(st store.Store, log *logger.Logger) RelationshipsService {
	return &relationshipsService{store: st, log: log.With("service", "RelationshipsService")}
}

func (s *relationshipsService) List(ctx context.Context, userID string) ([]map[string]any, error) {
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return nil, aerr
	}
	rows, err := s.store.GetAll(ctx, store.TableRelationships, map[string]any{"system_id": rowString(system, "id")})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, renderRelationship(row))
	}
	return out, nil
}

func (s *relationshipsService) Get(ctx context.Context, userID, relationshipID string) (map[string]any, error) {
	row, err := s.ownedRelationship(ctx, userID, relationshipID)
	if err != nil {
		return nil, err
	}
	return renderRelationship(row), nil
}

func (s *relationshipsService) Create(ctx context.Context, userID string, input *RelationshipInput) (map[string]any, error) {
	if details := validateRelationshipInput(input); len(details) > 0 {
		return nil, apierr.Validation(fmt.Errorf("invalid relationship"), details)
	}
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return nil, aerr
	}
	systemID := rowString(system, "id")

	for _, partID := range []string{input.SourceID, input.TargetID} {
		part, err := s.store.GetByID(ctx, store.TableParts, partID)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		if part == nil || rowString(part, "system_id") != systemID {
			return nil, apierr.NotFound("part_not_found", fmt.Errorf("part %s not found", partID))
		}
	}

	existing, err := s.store.GetAll(ctx, store.TableRelationships, map[string]any{
		"system_id": systemID,
		"part1_id":  input.SourceID,
		"part2_id":  input.TargetID,
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(existing) > 0 {
		return nil, apierr.Validation(fmt.Errorf("duplicate relationship"), map[string]string{"relationship": "Relationship already exists between these parts"})
	}

	data := map[string]any{
		"system_id":         systemID,
		"part1_id":          input.SourceID,
		"part2_id":          input.TargetID,
		"relationship_type": input.RelationshipType,
	}
	if input.Description != nil {
		data["description"] = *input.Description
	}
	row, err := s.store.Create(ctx, store.TableRelationships, data)
	if err != nil || row == nil {
		return nil, apierr.Internal(fmt.Errorf("relationship creation failed: %w", err))
	}
	s.log.Info("Created relationship", "relationship_type", input.RelationshipType)
	return renderRelationship(row), nil
}

func (s *relationshipsService) Update(ctx context.Context, userID, relationshipID string, input *RelationshipInput) (map[string]any, error) {
	if _, err := s.ownedRelationship(ctx, userID, relationshipID); err != nil {
		return nil, err
	}
	// Endpoints are immutable; only the label and description change.
	data := map[string]any{}
	if input.RelationshipType != "" {
		data["relationship_type"] = input.RelationshipType
	}
	if input.Description != nil {
		data["description"] = *input.Description
	}
	if len(data) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no updatable fields"), map[string]string{"body": "No updatable fields provided"})
	}
	row, err := s.store.Update(ctx, store.TableRelationships, relationshipID, data)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil {
		return nil, apierr.NotFound("relationship_not_found", fmt.Errorf("relationship not found"))
	}
	return renderRelationship(row), nil
}

func (s *relationshipsService) Delete(ctx context.Context, userID, relationshipID string) error {
	if _, err := s.ownedRelationship(ctx, userID, relationshipID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, store.TableRelationships, relationshipID)
	if err != nil {
		return apierr.Internal(err)
	}
	if !ok {
		return apierr.NotFound("relationship_not_found", fmt.Errorf("relationship not found"))
	}
	return nil
}

func validateRelationshipInput(input *RelationshipInput) map[string]string {
	details := map[string]string{}
	if input.SourceID == "" {
		details["source_id"] = "source_id is required"
	}
	if input.TargetID == "" {
		details["target_id"] = "target_id is required"
	}
	if input.RelationshipType == "" || len(input.RelationshipType) > 100 {
		details["relationship_type"] = "relationship_type must be 1-100 characters"
	}
	return details
}

func (s *relationshipsService) ownedRelationship(ctx context.Context, userID, relationshipID string) (map[string]any, error) {
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return nil, aerr
	}
	row, err := s.store.GetByID(ctx, store.TableRelationships, relationshipID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil || rowString(row, "system_id") != rowString(system, "id") {
		return nil, apierr.NotFound("relationship_not_found", fmt.Errorf("relationship not found"))
	}
	return row, nil
}

// renderRelationship exposes part1_id/part2_id under the API's
// source/target names.
func renderRelationship(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch k {
		case "part1_id":
			out["source_id"] = v
		case "part2_id":
			out["target_id"] = v
		default:
			out[k] = v
		}
	}
	return out
}
