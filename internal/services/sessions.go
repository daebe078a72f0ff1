package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/llm"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

const (
	// minMessagesForTopic gates keyword generation until a session has
	// enough text to say something meaningful.
	minMessagesForTopic = 3

	sessionGreeting = "Welcome! I'm here to help guide your IFS exploration. What's present for you right now, or which part would you like to connect with?"
)

type SessionInput struct {
	Title       *string `json:"title"`
	SystemID    string  `json:"system_id"`
	FocusPartID *string `json:"focusPartId"`
}

type SessionUpdateInput struct {
	Title       *string `json:"title"`
	Summary     *string `json:"summary"`
	Status      *string `json:"status"`
	FocusPartID *string `json:"focusPartId"`
}

// SessionDetail is the full session view: the session row, its ordered
// messages, the owning system, and the focused part if one is set.
type SessionDetail struct {
	Session   map[string]any   `json:"session"`
	Messages  []map[string]any `json:"messages"`
	System    map[string]any   `json:"system"`
	FocusPart map[string]any   `json:"currentFocusPart"`
}

// MessageResult reports the outcome of a chat turn. GuideError is set
// when the user message was saved but the guide reply failed; callers
// surface that as a partial success.
type MessageResult struct {
	UserMessage  map[string]any `json:"user_message"`
	GuideMessage map[string]any `json:"guide_response,omitempty"`
	GuideContent string         `json:"guide_response_content,omitempty"`
	GuideError   string         `json:"error,omitempty"`
}

type SessionsService interface {
	List(ctx context.Context, userID, systemID, status string) ([]map[string]any, error)
	Create(ctx context.Context, userID string, input *SessionInput) (map[string]any, error)
	Get(ctx context.Context, userID, sessionID string) (*SessionDetail, error)
	Update(ctx context.Context, userID, sessionID string, input *SessionUpdateInput) (map[string]any, error)
	Delete(ctx context.Context, userID, sessionID string) error
	// AddMessage stores the user's message, maintains the session
	// topic, and generates the guide's reply.
	AddMessage(ctx context.Context, userID, sessionID, content string) (*MessageResult, error)
	// SimilarMessages ranks the user's past session messages by
	// embedding distance to the query text.
	SimilarMessages(ctx context.Context, userID, query string, limit int) ([]map[string]any, error)
}

type sessionsService struct {
	store store.Store
	quota QuotaService
	guide GuideService
	llm   llm.Client
	log   *logger.Logger
}

// NewSessionsService wires the chat pipeline. guide and llmClient may
// be nil when no model is configured; sessions then store user
// messages without replies or embeddings.
func NewSessionsService(st store.Store, quota QuotaService, guide GuideService, llmClient llm.Client, log *logger.Logger) SessionsService {
	return &sessionsService{
		store: st,
		quota: quota,
		guide: guide,
		llm:   llmClient,
		log:   log.With("service", "SessionsService"),
	}
}

func (s *sessionsService) List(ctx context.Context, userID, systemID, status string) ([]map[string]any, error) {
	filters := map[string]any{"user_id": userID}
	if systemID != "" {
		filters["system_id"] = systemID
	}
	if status != "" {
		if status != types.SessionStatusActive && status != types.SessionStatusArchived {
			return nil, apierr.Validation(fmt.Errorf("invalid status"), map[string]string{"status": "Status must be 'active' or 'archived'"})
		}
		filters["status"] = status
	}
	sessions, err := s.store.GetAll(ctx, store.TableGuidedSessions, filters)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return sessions, nil
}

func (s *sessionsService) Create(ctx context.Context, userID string, input *SessionInput) (map[string]any, error) {
	if input.SystemID == "" {
		return nil, apierr.Validation(fmt.Errorf("system_id is required"), map[string]string{"system_id": "system_id is required"})
	}
	system, err := s.store.GetByID(ctx, store.TableSystems, input.SystemID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if system == nil || rowString(system, "user_id") != userID {
		return nil, apierr.Forbidden("system_access_denied", fmt.Errorf("system not found or access denied"))
	}

	title := ""
	if input.Title != nil {
		title = *input.Title
	}
	if title == "" {
		title = fmt.Sprintf("IFS Session - %s", time.Now().Format("2006-01-02 15:04"))
	}
	data := map[string]any{
		"user_id":   userID,
		"system_id": input.SystemID,
		"title":     title,
	}
	if input.FocusPartID != nil && *input.FocusPartID != "" {
		data["current_focus_part_id"] = *input.FocusPartID
	}
	session, err := s.store.Create(ctx, store.TableGuidedSessions, data)
	if err != nil || session == nil {
		return nil, apierr.Internal(fmt.Errorf("session creation failed: %w", err))
	}

	// Open with a guide greeting so the session never starts empty.
	greeting := map[string]any{
		"session_id": rowString(session, "id"),
		"role":       types.MessageRoleGuide,
		"content":    sessionGreeting,
	}
	s.attachEmbedding(ctx, greeting, sessionGreeting)
	if _, merr := s.store.Create(ctx, store.TableSessionMessages, greeting); merr != nil {
		s.log.Error("Failed to store session greeting", "session_id", rowString(session, "id"), "error", merr)
	}
	s.log.Info("Created guided session", "session_id", rowString(session, "id"), "user_id", userID)
	return session, nil
}

func (s *sessionsService) Get(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, merr := s.sessionMessages(ctx, sessionID)
	if merr != nil {
		return nil, apierr.Internal(merr)
	}
	system, serr := s.store.GetByID(ctx, store.TableSystems, rowString(session, "system_id"))
	if serr != nil {
		return nil, apierr.Internal(serr)
	}

	var focusPart map[string]any
	if focusID := rowString(session, "current_focus_part_id"); focusID != "" {
		focusPart, _ = s.store.GetByID(ctx, store.TableParts, focusID)
	}
	return &SessionDetail{
		Session:   session,
		Messages:  messages,
		System:    system,
		FocusPart: focusPart,
	}, nil
}

func (s *sessionsService) Update(ctx context.Context, userID, sessionID string, input *SessionUpdateInput) (map[string]any, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	data := map[string]any{}
	if input.Title != nil {
		data["title"] = *input.Title
	}
	if input.Summary != nil {
		data["summary"] = *input.Summary
	}
	if input.Status != nil {
		if *input.Status != types.SessionStatusActive && *input.Status != types.SessionStatusArchived {
			return nil, apierr.Validation(fmt.Errorf("invalid status"), map[string]string{"status": "Status must be 'active' or 'archived'"})
		}
		data["status"] = *input.Status
	}
	if input.FocusPartID != nil {
		if *input.FocusPartID != "" {
			part, perr := s.store.GetByID(ctx, store.TableParts, *input.FocusPartID)
			if perr != nil {
				return nil, apierr.Internal(perr)
			}
			if part == nil || rowString(part, "system_id") != rowString(session, "system_id") {
				return nil, apierr.NotFound("part_not_found", fmt.Errorf("focus part not found"))
			}
			data["current_focus_part_id"] = *input.FocusPartID
		} else {
			data["current_focus_part_id"] = nil
		}
	}
	if len(data) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no updatable fields"), map[string]string{"body": "No updatable fields provided"})
	}

	updated, uerr := s.store.Update(ctx, store.TableGuidedSessions, sessionID, data)
	if uerr != nil {
		return nil, apierr.Internal(uerr)
	}
	if updated == nil {
		return nil, apierr.NotFound("session_not_found", fmt.Errorf("session not found"))
	}
	return updated, nil
}

func (s *sessionsService) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, store.TableGuidedSessions, sessionID)
	if err != nil {
		return apierr.Internal(err)
	}
	if !ok {
		return apierr.NotFound("session_not_found", fmt.Errorf("session not found"))
	}
	return nil
}

func (s *sessionsService) AddMessage(ctx context.Context, userID, sessionID, content string) (*MessageResult, error) {
	if content == "" {
		return nil, apierr.Validation(fmt.Errorf("content is required"), map[string]string{"content": "Message content cannot be empty"})
	}
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.CheckMessageAllowance(ctx, userID); err != nil {
		return nil, err
	}

	userMsg := map[string]any{
		"session_id": sessionID,
		"role":       types.MessageRoleUser,
		"content":    content,
	}
	s.attachEmbedding(ctx, userMsg, content)
	stored, cerr := s.store.Create(ctx, store.TableSessionMessages, userMsg)
	if cerr != nil || stored == nil {
		return nil, apierr.Internal(fmt.Errorf("failed to save user message: %w", cerr))
	}
	if qerr := s.quota.RecordMessage(ctx, userID); qerr != nil {
		s.log.Error("Failed to record message usage", "error", qerr)
	}

	history, herr := s.sessionMessages(ctx, sessionID)
	if herr != nil {
		history = []map[string]any{stored}
	}
	s.maybeGenerateTopic(ctx, session, history)

	if s.guide == nil {
		s.log.Warn("Guide unavailable, stored user message only", "session_id", sessionID)
		return &MessageResult{UserMessage: stored}, nil
	}

	parts, perr := s.store.GetAll(ctx, store.TableParts, map[string]any{"system_id": rowString(session, "system_id")})
	if perr != nil {
		parts = nil
	}
	var focusPart map[string]any
	if focusID := rowString(session, "current_focus_part_id"); focusID != "" {
		focusPart, _ = s.store.GetByID(ctx, store.TableParts, focusID)
	}

	reply, gerr := s.guide.GenerateReply(ctx, history, parts, focusPart)
	if gerr != nil {
		s.log.Error("Guide reply generation failed", "session_id", sessionID, "error", gerr)
		return &MessageResult{
			UserMessage: stored,
			GuideError:  "Failed to generate AI guide response",
		}, nil
	}

	guideMsg := map[string]any{
		"session_id": sessionID,
		"role":       types.MessageRoleGuide,
		"content":    reply,
	}
	s.attachEmbedding(ctx, guideMsg, reply)
	storedGuide, gserr := s.store.Create(ctx, store.TableSessionMessages, guideMsg)
	if gserr != nil || storedGuide == nil {
		s.log.Error("Failed to save guide message", "session_id", sessionID, "error", gserr)
		return &MessageResult{
			UserMessage:  stored,
			GuideContent: reply,
			GuideError:   "Failed to save guide response message",
		}, nil
	}
	return &MessageResult{UserMessage: stored, GuideMessage: storedGuide}, nil
}

func (s *sessionsService) SimilarMessages(ctx context.Context, userID, query string, limit int) ([]map[string]any, error) {
	if query == "" {
		return nil, apierr.Validation(fmt.Errorf("query is required"), map[string]string{"query": "Query text is required"})
	}
	if s.llm == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "embeddings_unavailable", fmt.Errorf("embedding model is not configured"))
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	vector, err := s.llm.Embed(ctx, query)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("query embedding failed: %w", err))
	}

	// Over-fetch so tenant filtering still fills the page.
	rows, err := s.store.QueryVectorSimilarity(ctx, store.TableSessionMessages, "embedding", vector, limit*4)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	owned := map[string]bool{}
	out := make([]map[string]any, 0, limit)
	for _, row := range rows {
		sessionID := rowString(row, "session_id")
		allowed, seen := owned[sessionID]
		if !seen {
			session, serr := s.store.GetByID(ctx, store.TableGuidedSessions, sessionID)
			allowed = serr == nil && session != nil && rowString(session, "user_id") == userID
			owned[sessionID] = allowed
		}
		if !allowed {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *sessionsService) ownedSession(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	session, err := s.store.GetByID(ctx, store.TableGuidedSessions, sessionID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if session == nil || rowString(session, "user_id") != userID {
		return nil, apierr.NotFound("session_not_found", fmt.Errorf("guided session not found or access denied"))
	}
	return session, nil
}

func (s *sessionsService) sessionMessages(ctx context.Context, sessionID string) ([]map[string]any, error) {
	messages, err := s.store.GetAll(ctx, store.TableSessionMessages, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return rowString(messages[i], "timestamp") < rowString(messages[j], "timestamp")
	})
	return messages, nil
}

// maybeGenerateTopic sets the session topic once, after the third
// message, from the conversation's keywords.
func (s *sessionsService) maybeGenerateTopic(ctx context.Context, session map[string]any, history []map[string]any) {
	if rowString(session, "topic") != "" || len(history) < minMessagesForTopic {
		return
	}
	texts := make([]string, 0, len(history))
	for _, msg := range history {
		texts = append(texts, rowString(msg, "content"))
	}
	topic := GenerateTopicKeywords(texts)
	if topic == "" {
		return
	}
	sessionID := rowString(session, "id")
	if _, err := s.store.Update(ctx, store.TableGuidedSessions, sessionID, map[string]any{"topic": topic}); err != nil {
		s.log.Warn("Failed to save session topic", "session_id", sessionID, "error", err)
		return
	}
	s.log.Info("Generated session topic", "session_id", sessionID, "topic", topic)
}

// attachEmbedding adds the message embedding when a model is wired;
// messages are still stored without one on failure.
func (s *sessionsService) attachEmbedding(ctx context.Context, data map[string]any, text string) {
	if s.llm == nil {
		return
	}
	vector, err := s.llm.Embed(ctx, text)
	if err != nil {
		s.log.Error("Embedding generation failed", "error", err)
		return
	}
	data["embedding"] = vector
}
