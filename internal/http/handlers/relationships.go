package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type RelationshipHandler struct {
	relationships services.RelationshipsService
}

func NewRelationshipHandler(relationships services.RelationshipsService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships}
}

func (h *RelationshipHandler) List(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	rels, err := h.relationships.List(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, rels)
}

func (h *RelationshipHandler) Get(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	rel, err := h.relationships.Get(c.Request.Context(), userID, c.Param("relationship_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, rel)
}

func (h *RelationshipHandler) Create(c *gin.Context) {
	var input services.RelationshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	rel, err := h.relationships.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"success": true, "relationship": rel})
}

func (h *RelationshipHandler) Update(c *gin.Context) {
	var input services.RelationshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	rel, err := h.relationships.Update(c.Request.Context(), userID, c.Param("relationship_id"), &input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "relationship": rel})
}

func (h *RelationshipHandler) Delete(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	if err := h.relationships.Delete(c.Request.Context(), userID, c.Param("relationship_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
