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

// InstituteHandler handles institute registration, lookup and login.
type InstituteHandler struct {
	instituteService *service.InstituteService
	authService      *service.AuthService
}

// NewInstituteHandler creates a new InstituteHandler.
func NewInstituteHandler(instituteService *service.InstituteService, authService *service.AuthService) *InstituteHandler {
	return &InstituteHandler{instituteService: instituteService, authService: authService}
}

// Register godoc
// POST /api/v1/institutes
// Self-registers an institute; it stays pending until the admin decides.
func (h *InstituteHandler) Register(c *gin.Context) {
	var req model.RegisterInstituteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inst, err := h.instituteService.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDomainMismatch):
			response.Fail(c, http.StatusBadRequest, response.ErrDomainMismatch)
		case errors.Is(err, service.ErrConflict):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, inst)
}

// ListApproved godoc
// GET /api/v1/institutes
// Public projection of approved institutes, for staff registration.
func (h *InstituteHandler) ListApproved(c *gin.Context) {
	opts, err := h.instituteService.ListApproved(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, opts)
}

// Profile godoc
// GET /api/v1/institutes/profile
// Returns the institute whose contact email is the caller's.
func (h *InstituteHandler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	inst, err := h.instituteService.Profile(c.Request.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, inst)
}

// VerifyLogin godoc
// POST /api/v1/institutes/verify-login
// Matches an approved institute by name, admin name and designation, then
// issues a session for its contact email.
func (h *InstituteHandler) VerifyLogin(c *gin.Context) {
	var req model.InstituteLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	inst, err := h.instituteService.VerifyLogin(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	login, err := h.authService.IssueSession(c.Request.Context(), inst.Email, inst.AdminName)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":     login.Token,
		"role":      login.Role,
		"institute": inst,
	})
}
