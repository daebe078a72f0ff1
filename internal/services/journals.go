package services

import (
	"context"
	"fmt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
)

// JournalInput is the client-facing journal shape; "metadata" maps to
// the journal_metadata column.
type JournalInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	PartID   *string `json:"part_id"`
	Metadata *string `json:"metadata"`
}

type JournalsService interface {
	List(ctx context.Context, userID, systemID string) ([]map[string]any, error)
	Get(ctx context.Context, userID, journalID string) (map[string]any, error)
	Create(ctx context.Context, userID string, input *JournalInput) (map[string]any, error)
	Update(ctx context.Context, userID, journalID string, input *JournalInput) (map[string]any, error)
	Delete(ctx context.Context, userID, journalID string) error
}

type journalsService struct {
	store store.Store
	quota QuotaService
	log   *logger.Logger
}

func NewJournalsService(st store.Store, quota QuotaService, log *logger.Logger) JournalsService {
	return &journalsService{store: st, quota: quota, log: log.With("service", "JournalsService")}
}

func (s *journalsService) List(ctx context.Context, userID, systemID string) ([]map[string]any, error) {
	if systemID == "" {
		system, aerr := systemForUser(ctx, s.store, userID)
		if aerr != nil {
			return nil, aerr
		}
		systemID = rowString(system, "id")
	} else {
		system, err := s.store.GetByID(ctx, store.TableSystems, systemID)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		if system == nil || rowString(system, "user_id") != userID {
			return nil, apierr.NotFound("system_not_found", fmt.Errorf("system not found"))
		}
	}
	rows, err := s.store.GetAll(ctx, store.TableJournals, map[string]any{"system_id": systemID})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, renderJournal(row))
	}
	return out, nil
}

func (s *journalsService) Get(ctx context.Context, userID, journalID string) (map[string]any, error) {
	row, err := s.ownedJournal(ctx, userID, journalID)
	if err != nil {
		return nil, err
	}
	return renderJournal(row), nil
}

func (s *journalsService) Create(ctx context.Context, userID string, input *JournalInput) (map[string]any, error) {
	if input.Title == nil || *input.Title == "" || len(*input.Title) > 200 {
		return nil, apierr.Validation(fmt.Errorf("invalid title"), map[string]string{"title": "Title must be 1-200 characters"})
	}
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return nil, aerr
	}
	systemID := rowString(system, "id")

	if input.PartID != nil && *input.PartID != "" {
		if err := s.verifyPart(ctx, systemID, *input.PartID); err != nil {
			return nil, err
		}
	}
	if err := s.quota.CheckJournalAllowance(ctx, userID); err != nil {
		return nil, err
	}

	data := map[string]any{
		"system_id": systemID,
		"title":     *input.Title,
	}
	if input.Content != nil {
		data["content"] = *input.Content
	}
	if input.PartID != nil && *input.PartID != "" {
		data["part_id"] = *input.PartID
	}
	if input.Metadata != nil {
		data["journal_metadata"] = *input.Metadata
	}
	row, err := s.store.Create(ctx, store.TableJournals, data)
	if err != nil || row == nil {
		return nil, apierr.Internal(fmt.Errorf("journal creation failed: %w", err))
	}
	if err := s.quota.RecordJournal(ctx, userID); err != nil {
		s.log.Error("Failed to record journal usage", "error", err)
	}
	s.log.Info("Created journal entry", "system_id", systemID)
	return renderJournal(row), nil
}

func (s *journalsService) Update(ctx context.Context, userID, journalID string, input *JournalInput) (map[string]any, error) {
	existing, err := s.ownedJournal(ctx, userID, journalID)
	if err != nil {
		return nil, err
	}
	systemID := rowString(existing, "system_id")

	data := map[string]any{}
	if input.Title != nil {
		if *input.Title == "" || len(*input.Title) > 200 {
			return nil, apierr.Validation(fmt.Errorf("invalid title"), map[string]string{"title": "Title must be 1-200 characters"})
		}
		data["title"] = *input.Title
	}
	if input.Content != nil {
		data["content"] = *input.Content
	}
	if input.PartID != nil {
		if *input.PartID != "" {
			if verr := s.verifyPart(ctx, systemID, *input.PartID); verr != nil {
				return nil, verr
			}
			data["part_id"] = *input.PartID
		} else {
			data["part_id"] = nil
		}
	}
	if input.Metadata != nil {
		data["journal_metadata"] = *input.Metadata
	}
	if len(data) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no updatable fields"), map[string]string{"body": "No updatable fields provided"})
	}

	row, uerr := s.store.Update(ctx, store.TableJournals, journalID, data)
	if uerr != nil {
		return nil, apierr.Internal(uerr)
	}
	if row == nil {
		return nil, apierr.NotFound("journal_not_found", fmt.Errorf("journal not found"))
	}
	return renderJournal(row), nil
}

func (s *journalsService) Delete(ctx context.Context, userID, journalID string) error {
	if _, err := s.ownedJournal(ctx, userID, journalID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, store.TableJournals, journalID)
	if err != nil {
		return apierr.Internal(err)
	}
	if !ok {
		return apierr.NotFound("journal_not_found", fmt.Errorf("journal not found"))
	}
	return nil
}

func (s *journalsService) verifyPart(ctx context.Context, systemID, partID string) error {
	part, err := s.store.GetByID(ctx, store.TableParts, partID)
	if err != nil {
		return apierr.Internal(err)
	}
	if part == nil || rowString(part, "system_id") != systemID {
		return apierr.NotFound("part_not_found", fmt.Errorf("part %s not found", partID))
	}
	return nil
}

func (s *journalsService) ownedJournal(ctx context.Context, userID, journalID string) (map[string]any, error) {
	system, aerr := systemForUser(ctx, s.store, userID)
	if aerr != nil {
		return nil, aerr
	}
	row, err := s.store.GetByID(ctx, store.TableJournals, journalID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil || rowString(row, "system_id") != rowString(system, "id") {
		return nil, apierr.NotFound("journal_not_found", fmt.Errorf("journal not found"))
	}
	return row, nil
}

// renderJournal exposes journal_metadata as "metadata".
func renderJournal(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if k == "journal_metadata" {
			out["metadata"] = v
			continue
		}
		out[k] = v
	}
	return out
}
