package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type JournalHandler struct {
	journals services.JournalsService
}

func NewJournalHandler(journals services.JournalsService) *JournalHandler {
	return &JournalHandler{journals: journals}
}

func (h *JournalHandler) List(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	journals, err := h.journals.List(c.Request.Context(), userID, c.Query("system_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, journals)
}

func (h *JournalHandler) Get(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	journal, err := h.journals.Get(c.Request.Context(), userID, c.Param("journal_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, journal)
}

func (h *JournalHandler) Create(c *gin.Context) {
	var input services.JournalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	journal, err := h.journals.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"success": true, "journal": journal})
}

func (h *JournalHandler) Update(c *gin.Context) {
	var input services.JournalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	journal, err := h.journals.Update(c.Request.Context(), userID, c.Param("journal_id"), &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "journal": journal})
}

func (h *JournalHandler) Delete(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	if err := h.journals.Delete(c.Request.Context(), userID, c.Param("journal_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
