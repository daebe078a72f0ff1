// Package response renders the API's JSON envelopes. Errors always
// look like {"error": {"message", "code", "details?"}}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// FromError unwraps an *apierr.Error for its status, code, and field
// details; anything else becomes an opaque 500.
func FromError(c *gin.Context, err error) {
	var aerr *apierr.Error
	if errors.As(err, &aerr) {
		c.JSON(aerr.Status, ErrorEnvelope{
			Error: APIError{
				Message: aerr.Error(),
				Code:    aerr.Code,
				Details: aerr.Details,
			},
		})
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("an internal error occurred"))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
