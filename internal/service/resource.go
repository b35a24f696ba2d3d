package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/repository"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
	"github.com/mmaazkhanhere/learnpath/pkg/pagination"
)

// CreateResourceInput holds the parameters for creating a learning resource.
type CreateResourceInput struct {
	Title       string
	Description string
	URL         string
	Type        string
	Difficulty  int
	SkillIDs    []int64
}

// UpdateResourceInput holds the parameters for updating a learning resource.
// Nil fields are left unchanged; a non-nil SkillIDs replaces the skill links.
type UpdateResourceInput struct {
	Title       *string
	Description *string
	URL         *string
	Type        *string
	Difficulty  *int
	SkillIDs    []int64
}

// ResourceService implements the business logic for learning resources.
type ResourceService struct {
	resources repository.ResourceRepository
	logger    *slog.Logger
}

// NewResourceService creates a new learning resource service.
func NewResourceService(resources repository.ResourceRepository, logger *slog.Logger) *ResourceService {
	return &ResourceService{
		resources: resources,
		logger:    logger,
	}
}

// List returns a filtered page of resources.
func (s *ResourceService) List(ctx context.Context, filter domain.ResourceFilter, params pagination.Params) ([]domain.LearningResource, int, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("type must be one of %s", typesList()))
	}

	resources, total, err := s.resources.List(ctx, filter, params.Offset, params.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return resources, total, nil
}

// Get returns a single resource with its skills.
func (s *ResourceService) Get(ctx context.Context, id int64) (*domain.LearningResource, error) {
	return s.resources.GetByID(ctx, id)
}

// Create adds a resource owned by actorID.
func (s *ResourceService) Create(ctx context.Context, in CreateResourceInput, actorID int64) (*domain.LearningResource, error) {
	res := &domain.LearningResource{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		URL:         strings.TrimSpace(in.URL),
		Type:        domain.ResourceType(in.Type),
		Difficulty:  in.Difficulty,
		CreatedBy:   actorID,
	}
	if res.Difficulty == 0 {
		res.Difficulty = domain.MinDifficulty
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}

	if err := s.resources.Create(ctx, res, dedupe(in.SkillIDs)); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.logger.InfoContext(ctx, "learning resource created",
		slog.Int64("resource_id", res.ID),
		slog.Int64("created_by", actorID),
	)
	return res, nil
}

// Update changes a resource.
func (s *ResourceService) Update(ctx context.Context, id int64, in UpdateResourceInput) (*domain.LearningResource, error) {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		res.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		res.Description = strings.TrimSpace(*in.Description)
	}
	if in.URL != nil {
		res.URL = strings.TrimSpace(*in.URL)
	}
	if in.Type != nil {
		res.Type = domain.ResourceType(*in.Type)
	}
	if in.Difficulty != nil {
		res.Difficulty = *in.Difficulty
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}

	var skillIDs []int64
	if in.SkillIDs != nil {
		skillIDs = dedupe(in.SkillIDs)
	}
	if err := s.resources.Update(ctx, res, skillIDs); err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}

	s.logger.InfoContext(ctx, "learning resource updated", slog.Int64("resource_id", res.ID))
	return res, nil
}

// Delete removes a resource.
func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	if err := s.resources.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	s.logger.InfoContext(ctx, "learning resource deleted", slog.Int64("resource_id", id))
	return nil
}

func validateResource(res *domain.LearningResource) error {
	if res.Title == "" {
		return apperrors.InvalidInput("title is required")
	}
	if res.URL == "" {
		return apperrors.InvalidInput("url is required")
	}
	if !res.Type.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("resource_type must be one of %s", typesList()))
	}
	if res.Difficulty < domain.MinDifficulty || res.Difficulty > domain.MaxDifficulty {
		return apperrors.InvalidInput(fmt.Sprintf("difficulty must be between %d and %d",
			domain.MinDifficulty, domain.MaxDifficulty))
	}
	return nil
}

// dedupe drops repeated IDs, keeping first occurrences in order. The result
// is never nil.
func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func typesList() string {
	types := domain.ResourceTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
