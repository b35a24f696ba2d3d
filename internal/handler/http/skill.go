package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmaazkhanhere/learnpath/internal/service"
	"github.com/mmaazkhanhere/learnpath/pkg/httputil"
	"github.com/mmaazkhanhere/learnpath/pkg/pagination"
	"github.com/mmaazkhanhere/learnpath/pkg/validator"
)

// SkillHandler handles HTTP requests for skill endpoints.
type SkillHandler struct {
	service *service.SkillService
	logger  *slog.Logger
}

// NewSkillHandler creates a new skill HTTP handler.
func NewSkillHandler(svc *service.SkillService, logger *slog.Logger) *SkillHandler {
	return &SkillHandler{service: svc, logger: logger}
}

// CreateSkillRequest is the JSON request body for creating a skill.
type CreateSkillRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateSkillRequest is the JSON request body for updating a skill.
type UpdateSkillRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// AssignSkillRequest links a skill to the caller. Either skill_id or title
// must be present.
type AssignSkillRequest struct {
	SkillID     *int64 `json:"skill_id" validate:"omitempty,gt=0"`
	Title       string `json:"title" validate:"required_without=SkillID,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// List handles GET /api/v1/skills
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	skills, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(skills, total, params))
}

// Get handles GET /api/v1/skills/{id}
func (h *SkillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	skill, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, skill)
}

// Create handles POST /api/v1/skills
func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoPrincipal, h.logger)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateSkillRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	skill, err := h.service.Create(r.Context(), service.CreateSkillInput{
		Title:       req.Title,
		Description: req.Description,
	}, p.User.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, skill)
}

// Update handles PUT /api/v1/skills/{id}
func (h *SkillHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateSkillRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	skill, err := h.service.Update(r.Context(), id, service.UpdateSkillInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, skill)
}

// Delete handles DELETE /api/v1/skills/{id}
func (h *SkillHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListMine handles GET /api/v1/users/me/skills
func (h *SkillHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoPrincipal, h.logger)
		return
	}

	skills, err := h.service.ListForUser(r.Context(), p.User.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, skills)
}

// AssignToMe handles POST /api/v1/users/me/skills
func (h *SkillHandler) AssignToMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, errNoPrincipal, h.logger)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AssignSkillRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	skill, err := h.service.AssignToUser(r.Context(), p.User.ID, service.AssignSkillInput{
		SkillID:     req.SkillID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, skill)
}
