package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pigweb/pigweb/internal/api/middleware"
)

// AuthHandler exposes the session probe.
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Roles handles GET /api/auth. Clients call it at startup and after a 401
// to learn who they are and which screens to enable.
func (h *AuthHandler) Roles(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    principal.ID,
		"name":  principal.Name,
		"roles": principal.Roles,
	})
}
