package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type PartHandler struct {
	parts services.PartsService
}

func NewPartHandler(parts services.PartsService) *PartHandler {
	return &PartHandler{parts: parts}
}

func (h *PartHandler) List(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	parts, err := h.parts.List(c.Request.Context(), userID, c.Query("system_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, parts)
}

func (h *PartHandler) Get(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	part, err := h.parts.Get(c.Request.Context(), userID, c.Param("part_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, part)
}

func (h *PartHandler) Create(c *gin.Context) {
	var input services.PartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	part, err := h.parts.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondCreated(c, part)
}

func (h *PartHandler) Update(c *gin.Context) {
	var input services.PartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	part, err := h.parts.Update(c.Request.Context(), userID, c.Param("part_id"), &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, part)
}

func (h *PartHandler) Delete(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	if err := h.parts.Delete(c.Request.Context(), userID, c.Param("part_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Part deleted successfully"})
}
