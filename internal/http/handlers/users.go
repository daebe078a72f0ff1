package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type UserHandler struct {
	users services.UsersService
}

func NewUserHandler(users services.UsersService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), ctxutil.UserID(c.Request.Context()).String(), updates)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, user)
}
