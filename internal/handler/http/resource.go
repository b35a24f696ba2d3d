package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	"github.com/mmaazkhanhere/learnpath/pkg/httputil"
	"github.com/mmaazkhanhere/learnpath/pkg/pagination"
	"github.com/mmaazkhanhere/learnpath/pkg/validator"
)

// ResourceHandler handles HTTP requests for learning resource endpoints.
type ResourceHandler struct {
	service *service.ResourceService
	logger  *slog.Logger
}

// NewResourceHandler creates a new learning resource HTTP handler.
func NewResourceHandler(svc *service.ResourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{service: svc, logger: logger}
}

// CreateResourceRequest is the JSON request body for creating a resource.
type CreateResourceRequest struct {
	Title        string  `json:"title" validate:"required,min=1,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	URL          string  `json:"url" validate:"required,url,max=2048"`
	ResourceType string  `json:"resource_type" validate:"required,oneof=article video course book"`
	Difficulty   int     `json:"difficulty" validate:"omitempty,min=1,max=5"`
	SkillIDs     []int64 `json:"skill_ids" validate:"omitempty,max=50,dive,gt=0"`
}

// UpdateResourceRequest is the JSON request body for updating a resource.
// skill_ids replaces the linked skills when present; an empty list unlinks
// them all.
type UpdateResourceRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	URL          *string `json:"url" validate:"omitempty,url,max=2048"`
	ResourceType *string `json:"resource_type" validate:"omitempty,oneof=article video course book"`
	Difficulty   *int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
	SkillIDs     []int64 `json:"skill_ids" validate:"omitempty,max=50,dive,gt=0"`
}

// List handles GET /api/v1/resources
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var filter domain.ResourceFilter
	if v := r.URL.Query().Get("skill_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "skill_id must be a positive integer"},
			})
			return
		}
		filter.SkillID = id
	}
	filter.Type = domain.ResourceType(r.URL.Query().Get("type"))

	resources, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(resources, total, params))
}

// Get handles GET /api/v1/resources/{id}
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// Create handles POST /api/v1/resources
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoPrincipal, h.logger)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateResourceRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Create(r.Context(), service.CreateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Type:        req.ResourceType,
		Difficulty:  req.Difficulty,
		SkillIDs:    req.SkillIDs,
	}, p.User.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, res)
}

// Update handles PUT /api/v1/resources/{id}
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateResourceRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Update(r.Context(), id, service.UpdateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Type:        req.ResourceType,
		Difficulty:  req.Difficulty,
		SkillIDs:    req.SkillIDs,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// Delete handles DELETE /api/v1/resources/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
