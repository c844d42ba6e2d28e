package handler

import (
	"errors"
	"net/http"

	"github.com/batchbook/batchbook-backend/internal/middleware"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/batchbook/batchbook-backend/internal/response"
	"github.com/batchbook/batchbook-backend/internal/service"
	"github.com/batchbook/batchbook-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, logout and the identity endpoint.
type AuthHandler struct {
	authService     *service.AuthService
	identityService *service.IdentityService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, identityService *service.IdentityService) *AuthHandler {
	return &AuthHandler{authService: authService, identityService: identityService}
}

// Login godoc
// POST /api/v1/auth/login
// Signs a user in with a provider-verified profile or local credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the caller's identity, resolved role and upload permission.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ident, err := h.identityService.Resolve(c.Request.Context(), claims.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	canUpload, err := h.identityService.CanUpload(c.Request.Context(), claims.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), claims.Email)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"email":      ident.Email,
		"role":       ident.Role,
		"can_upload": canUpload,
		"user":       user,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Drops the caller's session, invalidating the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.Email); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
