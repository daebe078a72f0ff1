package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
	// authMethod names the active backend in auth responses so the
	// frontend knows whether refresh tokens exist.
	authMethod string
}

func NewAuthHandler(auth services.AuthService, authMethod string) *AuthHandler {
	return &AuthHandler{auth: auth, authMethod: authMethod}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.auth.Register(c.Request.Context(), req.FirstName, req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	payload := gin.H{
		"message":     "User registered successfully",
		"user":        result.User,
		"auth_method": h.authMethod,
	}
	if result.AccessToken != "" {
		payload["access_token"] = result.AccessToken
	} else {
		payload["message"] = "Registration successful. Please check your email to confirm your account."
	}
	if result.RefreshToken != "" {
		payload["refresh_token"] = result.RefreshToken
	}
	response.RespondCreated(c, payload)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	payload := gin.H{
		"message":      "Login successful",
		"access_token": result.AccessToken,
		"user":         result.User,
		"auth_method":  h.authMethod,
	}
	if result.RefreshToken != "" {
		payload["refresh_token"] = result.RefreshToken
	}
	response.RespondOK(c, payload)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}
	payload := gin.H{
		"access_token": result.AccessToken,
		"auth_method":  h.authMethod,
	}
	if result.RefreshToken != "" {
		payload["refresh_token"] = result.RefreshToken
	}
	if result.User != nil {
		payload["user"] = result.User
	}
	response.RespondOK(c, payload)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := ""
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		token = rd.TokenString
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Logged out"})
}
