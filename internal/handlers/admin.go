package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/internal/store"
	"github.com/wnusair/miami-MTI/pkg/auth"
	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

// ListUsers returns every account with its role.
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser adds an account with a hashed password.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and role_id are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, hash, req.RoleID)
	if errors.Is(err, store.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.logger.WithFields(logging.Fields{
		"username": user.Username,
		"role":     user.RoleName,
		"actor":    c.GetString(auth.CtxUsername),
	}).Info("User created")
	c.JSON(http.StatusCreated, user)
}

// DeleteUser removes an account. Deleting your own account is refused so an
// administrator cannot lock themselves out mid-session.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if c.GetString(auth.CtxUserID) == strconv.FormatInt(id, 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	err = h.users.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	h.logger.WithFields(logging.Fields{
		"user_id": id,
		"actor":   c.GetString(auth.CtxUsername),
	}).Info("User deleted")
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// ListRoles returns the assignable roles.
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.users.ListRoles(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list roles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list roles"})
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}
	c.JSON(http.StatusOK, roles)
}

// GetRolePermissions returns the effective capability matrix, one entry per
// role.
func (h *Handlers) GetRolePermissions(c *gin.Context) {
	roles, err := h.users.ListRoles(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list roles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list roles"})
		return
	}

	matrix := make(map[string]models.Permissions, len(roles))
	for _, role := range roles {
		matrix[role.Name] = h.gate.PermissionsFor(c.Request.Context(), role.Name)
	}
	c.JSON(http.StatusOK, matrix)
}

// UpdateRolePermissions replaces the stored capability row for a role.
func (h *Handlers) UpdateRolePermissions(c *gin.Context) {
	role := c.Param("role")

	var perms models.Permissions
	if err := c.ShouldBindJSON(&perms); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid permissions body"})
		return
	}

	err := h.users.UpdatePermissions(c.Request.Context(), role, perms)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update permissions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update permissions"})
		return
	}

	h.logger.WithFields(logging.Fields{
		"role":  role,
		"actor": c.GetString(auth.CtxUsername),
	}).Info("Role permissions updated")
	c.JSON(http.StatusOK, gin.H{"role": role, "permissions": perms})
}
