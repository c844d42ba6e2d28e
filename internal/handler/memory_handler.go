package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/batchbook/batchbook-backend/internal/middleware"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/batchbook/batchbook-backend/internal/response"
	"github.com/batchbook/batchbook-backend/internal/service"
	"github.com/batchbook/batchbook-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// MemoryHandler handles the memory feed, CRUD, likes and comments.
type MemoryHandler struct {
	memoryService   *service.MemoryService
	identityService *service.IdentityService
}

// NewMemoryHandler creates a new MemoryHandler.
func NewMemoryHandler(memoryService *service.MemoryService, identityService *service.IdentityService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService, identityService: identityService}
}

// List godoc
// GET /api/v1/memories?school=&year=&page=&per_page=
// Without filters this is the public feed; a school or year filter turns
// it into a search that also returns private memories.
func (h *MemoryHandler) List(c *gin.Context) {
	q := model.MemoryQuery{
		School: c.Query("school"),
	}
	q.Year, _ = strconv.Atoi(c.Query("year"))
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	memories, pagination, err := h.memoryService.List(c.Request.Context(), q, middleware.CallerEmail(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, memories, pagination)
}

// Create godoc
// POST /api/v1/memories (multipart)
// Creates a memory from 1-5 image files plus form fields. Gated by
// RequireUploader.
func (h *MemoryHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateMemoryRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	files := form.File["files"]

	memory, err := h.memoryService.Create(c.Request.Context(), claims.Email, req, files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileRequired):
			response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		case errors.Is(err, service.ErrTooManyFiles):
			response.Fail(c, http.StatusBadRequest, response.ErrTooManyFiles)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrPartialWrite):
			response.Fail(c, http.StatusInternalServerError, response.ErrPartialWrite)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrUpstream)
		}
		return
	}

	response.Success(c, http.StatusCreated, memory)
}

// Get godoc
// GET /api/v1/memories/:id
func (h *MemoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	memory, err := h.memoryService.Get(c.Request.Context(), id, middleware.CallerEmail(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, memory)
}

// Update godoc
// PUT /api/v1/memories/:id
// Uploader or platform admin only.
func (h *MemoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ident, ok := h.resolveIdentity(c)
	if !ok {
		return
	}

	var req model.UpdateMemoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	memory, err := h.memoryService.Update(c.Request.Context(), id, ident, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrForbidden):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, memory)
}

// Delete godoc
// DELETE /api/v1/memories/:id
// Uploader or platform admin only. Blobs are queued for deletion.
func (h *MemoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ident, ok := h.resolveIdentity(c)
	if !ok {
		return
	}

	if err := h.memoryService.Delete(c.Request.Context(), id, ident); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrForbidden):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ToggleLike godoc
// POST /api/v1/memories/:id/like
// Flips the caller's like and returns the new state.
func (h *MemoryHandler) ToggleLike(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.memoryService.ToggleLike(c.Request.Context(), id, claims.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListComments godoc
// GET /api/v1/memories/:id/comments
func (h *MemoryHandler) ListComments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	comments, err := h.memoryService.Comments(c.Request.Context(), id, middleware.CallerEmail(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, comments)
}

// AddComment godoc
// POST /api/v1/memories/:id/comments
func (h *MemoryHandler) AddComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AddCommentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	comment, err := h.memoryService.AddComment(c.Request.Context(), id, claims.Email, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

func (h *MemoryHandler) resolveIdentity(c *gin.Context) (model.Identity, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return model.Identity{}, false
	}

	ident, err := h.identityService.Resolve(c.Request.Context(), claims.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return model.Identity{}, false
	}
	return ident, true
}

// parseID reads the :id path param. Responds with 400 and returns false on
// a malformed value.
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
