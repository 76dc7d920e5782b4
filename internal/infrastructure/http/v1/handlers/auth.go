package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
)

// AuthHandler exposes the caller's identity.
type AuthHandler struct {
	*BaseHandler
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler) *AuthHandler {
	return &AuthHandler{BaseHandler: base}
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId": user.UserID,
		"email":  user.Email,
		"roles":  user.Roles,
	})
}
