package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type SystemHandler struct {
	systems services.SystemsService
}

func NewSystemHandler(systems services.SystemsService) *SystemHandler {
	return &SystemHandler{systems: systems}
}

func (h *SystemHandler) GetPrimary(c *gin.Context) {
	system, err := h.systems.GetPrimary(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, system)
}

func (h *SystemHandler) GetByID(c *gin.Context) {
	system, err := h.systems.GetByID(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String(), c.Param("system_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, system)
}

// UpdatePrimary exists for client compatibility; system rows carry no
// user-editable fields, so it just re-renders the current state.
func (h *SystemHandler) UpdatePrimary(c *gin.Context) {
	h.GetPrimary(c)
}

func (h *SystemHandler) Overview(c *gin.Context) {
	overview, err := h.systems.Overview(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, overview)
}

func (h *SystemHandler) Reset(c *gin.Context) {
	if err := h.systems.Reset(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String()); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success": true,
		"message": "System has been reset. All parts (except Self), relationships, and journal entries have been deleted.",
	})
}
