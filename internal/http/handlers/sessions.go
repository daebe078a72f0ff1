package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionsService
}

func NewSessionHandler(sessions services.SessionsService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) List(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	sessions, err := h.sessions.List(c.Request.Context(), userID, c.Query("system_id"), c.Query("status"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Create(c *gin.Context) {
	var input services.SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	session, err := h.sessions.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": session})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	detail, err := h.sessions.Get(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func (h *SessionHandler) Update(c *gin.Context) {
	var input services.SessionUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	session, err := h.sessions.Update(c.Request.Context(), userID, c.Param("session_id"), &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	if err := h.sessions.Delete(c.Request.Context(), userID, c.Param("session_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Guided session deleted successfully"})
}

type addMessageRequest struct {
	Content string `json:"content"`
}

// AddMessage returns 207 when the user message was stored but the
// guide reply failed; the client keeps the user's text either way.
func (h *SessionHandler) AddMessage(c *gin.Context) {
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	result, err := h.sessions.AddMessage(c.Request.Context(), userID, c.Param("session_id"), req.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if result.GuideError != "" {
		c.JSON(http.StatusMultiStatus, result)
		return
	}
	response.RespondOK(c, result)
}

func (h *SessionHandler) SimilarMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	userID := ctxutil.UserID(c.Request.Context()).String()
	messages, err := h.sessions.SimilarMessages(c.Request.Context(), userID, c.Query("query"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": messages})
}
