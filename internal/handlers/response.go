package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolping/schoolping-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError renders only the client-safe message; wrapped causes stay
// server-side.
func RespondError(c *gin.Context, err error) {
	c.JSON(apierr.StatusOf(err), ErrorEnvelope{
		Error: APIError{
			Message: apierr.MessageOf(err),
			Code:    apierr.CodeOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
