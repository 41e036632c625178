package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	token, clr, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token": token,
		"user_id":      clr.UserID,
		"role":         clr.Role,
	})
}

// Logout is a client-side token discard; there is no server session to
// tear down.
func (h *AuthHandler) Logout(c *gin.Context) {
	RespondOK(c, gin.H{"ok": true})
}
