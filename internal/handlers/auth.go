package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/internal/store"
	"github.com/wnusair/miami-MTI/pkg/auth"
	"github.com/wnusair/miami-MTI/pkg/models"
)

// Login checks credentials and issues a session token, both in the response
// body and as an httpOnly cookie for browser clients.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to look up account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	// Same rejection for unknown user and bad password
	if errors.Is(err, store.ErrNotFound) || !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.logger.WithField("username", req.Username).Warn("Rejected login attempt")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateJWT(strconv.FormatInt(user.ID, 10), user.Username, user.RoleName, h.jwtSecret)
	if err != nil {
		h.logger.WithError(err).Error("Failed to sign session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, token, int(auth.SessionDuration.Seconds()), "/", "", false, true)

	h.logger.WithField("username", user.Username).Info("User logged in")
	c.JSON(http.StatusOK, models.LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.RoleName,
		Perms:    h.gate.PermissionsFor(c.Request.Context(), user.RoleName),
	})
}

// Logout clears the session cookie. Tokens are stateless, so an API client
// simply discards its copy.
func (h *Handlers) Logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the caller's identity and effective capability set. The client
// uses the capabilities to decide which panels to render.
func (h *Handlers) Me(c *gin.Context) {
	role := c.GetString(auth.CtxRole)
	userID, _ := strconv.ParseInt(c.GetString(auth.CtxUserID), 10, 64)

	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"username":    c.GetString(auth.CtxUsername),
		"role":        role,
		"permissions": h.gate.PermissionsFor(c.Request.Context(), role),
	})
}
