package handlers

import (
	"context"
	"net/http"

	"taskhub/internal/auth"
	"taskhub/internal/dto"
	"taskhub/internal/gateway"

	"github.com/gin-gonic/gin"
)

// Authenticator checks credentials against the remote service.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (gateway.Identity, error)
}

// AuthHandler handles login, logout and the current-user lookup.
type AuthHandler struct {
	sessions *auth.Store
	remote   Authenticator
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions *auth.Store, remote Authenticator) *AuthHandler {
	return &AuthHandler{sessions: sessions, remote: remote}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.SessionUserResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ident, err := h.remote.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.sessions.Create(c.Request.Context(), ident.User.ID, ident.User.Username, ident.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	h.sessions.SetCookies(c, sess)
	c.JSON(http.StatusOK, dto.SessionUserResponse{ID: sess.UserID, Username: sess.Username})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if id := auth.SessionID(c); id != "" {
		_ = h.sessions.Delete(c.Request.Context(), id)
	}
	h.sessions.ClearCookies(c)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.SessionUserResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	c.JSON(http.StatusOK, dto.SessionUserResponse{ID: sess.UserID, Username: sess.Username})
}
