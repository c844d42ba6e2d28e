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

// StaffHandler handles staff registration, status and login.
type StaffHandler struct {
	staffService *service.StaffService
	authService  *service.AuthService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(staffService *service.StaffService, authService *service.AuthService) *StaffHandler {
	return &StaffHandler{staffService: staffService, authService: authService}
}

// Register godoc
// POST /api/v1/staff
// Registers the caller as staff of an approved institute. The email comes
// from the session, never from the payload.
func (h *StaffHandler) Register(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RegisterStaffRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.staffService.Register(c.Request.Context(), claims.Email, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrInstituteNotApproved):
			response.Fail(c, http.StatusForbidden, response.ErrInstituteNotApproved)
		case errors.Is(err, service.ErrAlreadyRegistered):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyRegistered)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Status godoc
// GET /api/v1/staff/status
// Reports whether the caller is registered staff and whether they are
// verified.
func (h *StaffHandler) Status(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, err := h.staffService.Status(c.Request.Context(), claims.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// VerifyLogin godoc
// POST /api/v1/staff/verify-login
// Matches a verified staff member by email, full name and employee ID,
// then issues a session.
func (h *StaffHandler) VerifyLogin(c *gin.Context) {
	var req model.StaffLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	staff, err := h.staffService.VerifyLogin(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	login, err := h.authService.IssueSession(c.Request.Context(), staff.Email, staff.FullName)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": login.Token,
		"role":  login.Role,
		"staff": staff,
	})
}
