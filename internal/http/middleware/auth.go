package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type AuthMiddleware struct {
	log       *logger.Logger
	auth      services.AuthService
	provision services.ProvisionService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService, provision services.ProvisionService) *AuthMiddleware {
	return &AuthMiddleware{
		log:       log.With("Middleware", "AuthMiddleware"),
		auth:      auth,
		provision: provision,
	}
}

// RequireAuth verifies the bearer token and then runs the provisioning
// invariants: a local user row and a system with its Self part exist
// before any handler sees the request.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		identity, err := am.auth.Verify(c.Request.Context(), tokenString)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}
		if identity == nil || identity.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}

		if _, err := am.provision.EnsureUser(c.Request.Context(), identity); err != nil {
			am.log.Error("User provisioning failed", "user_id", identity.UserID.String(), "error", err)
			response.FromError(c, err)
			c.Abort()
			return
		}
		if _, err := am.provision.EnsureSystem(c.Request.Context(), identity.UserID.String()); err != nil {
			am.log.Error("System provisioning failed", "user_id", identity.UserID.String(), "error", err)
			response.FromError(c, err)
			c.Abort()
			return
		}

		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			TokenString: tokenString,
			UserID:      identity.UserID,
			Email:       identity.Email,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return c.Query("token")
}
