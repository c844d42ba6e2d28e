package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/batchbook/batchbook-backend/internal/middleware"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/batchbook/batchbook-backend/internal/response"
	"github.com/batchbook/batchbook-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles the platform-admin surface: institute verification
// and dashboard statistics. Routes are gated by RequirePlatformAdmin.
type AdminHandler struct {
	instituteService *service.InstituteService
	statsService     *service.StatsService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(instituteService *service.InstituteService, statsService *service.StatsService) *AdminHandler {
	return &AdminHandler{instituteService: instituteService, statsService: statsService}
}

// ListInstitutes godoc
// GET /api/v1/admin/institutes
// Every institute regardless of status, newest first.
func (h *AdminHandler) ListInstitutes(c *gin.Context) {
	institutes, err := h.instituteService.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, institutes)
}

// ApproveInstitute godoc
// POST /api/v1/admin/institutes/:id/approve
// Repeatable; a later decision overwrites the earlier one.
func (h *AdminHandler) ApproveInstitute(c *gin.Context) {
	h.decide(c, h.instituteService.Approve)
}

// RejectInstitute godoc
// POST /api/v1/admin/institutes/:id/reject
func (h *AdminHandler) RejectInstitute(c *gin.Context) {
	h.decide(c, h.instituteService.Reject)
}

func (h *AdminHandler) decide(c *gin.Context, fn func(ctx context.Context, id int, adminEmail string) (*model.Institute, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	inst, err := fn(c.Request.Context(), id, claims.Email)
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

// Statistics godoc
// GET /api/v1/admin/statistics
// Platform-wide counts for the admin dashboard.
func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.statsService.Statistics(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
