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
	"github.com/mmaazkhanhere/learnpath/pkg/slug"
)

// CreateSkillInput holds the parameters for creating a skill.
type CreateSkillInput struct {
	Title       string
	Description string
}

// UpdateSkillInput holds the parameters for updating a skill. Nil fields are
// left unchanged.
type UpdateSkillInput struct {
	Title       *string
	Description *string
}

// AssignSkillInput links an existing skill by ID, or creates one from Title
// and Description when SkillID is nil.
type AssignSkillInput struct {
	SkillID     *int64
	Title       string
	Description string
}

// SkillService implements the business logic for skills.
type SkillService struct {
	skills repository.SkillRepository
	cache  repository.SkillCache
	logger *slog.Logger
}

// NewSkillService creates a new skill service. cache may be nil.
func NewSkillService(skills repository.SkillRepository, cache repository.SkillCache, logger *slog.Logger) *SkillService {
	return &SkillService{
		skills: skills,
		cache:  cache,
		logger: logger,
	}
}

// List returns a page of skills, served from the cache when possible. Cache
// failures fall back to the database.
func (s *SkillService) List(ctx context.Context, params pagination.Params) ([]domain.Skill, int, error) {
	// The page is stored under the generation observed before the read, so a
	// write that lands in between leaves it unreachable.
	cacheable := false
	var generation int64
	if s.cache != nil {
		page, gen, err := s.cache.Get(ctx, params.Offset, params.PerPage)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "skill cache read failed",
				slog.String("error", err.Error()),
			)
		case page != nil:
			return page.Skills, page.Total, nil
		default:
			cacheable, generation = true, gen
		}
	}

	skills, total, err := s.skills.List(ctx, params.Offset, params.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list skills: %w", err)
	}

	if cacheable {
		page := &repository.SkillPage{Skills: skills, Total: total}
		if err := s.cache.Set(ctx, generation, params.Offset, params.PerPage, page); err != nil {
			s.logger.WarnContext(ctx, "skill cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return skills, total, nil
}

// Get returns a single skill.
func (s *SkillService) Get(ctx context.Context, id int64) (*domain.Skill, error) {
	return s.skills.GetByID(ctx, id)
}

// Create adds a skill owned by actorID.
func (s *SkillService) Create(ctx context.Context, in CreateSkillInput, actorID int64) (*domain.Skill, error) {
	skill := &domain.Skill{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   &actorID,
	}
	if err := setSlug(skill); err != nil {
		return nil, err
	}

	if err := s.skills.Create(ctx, skill); err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "skill created",
		slog.Int64("skill_id", skill.ID),
		slog.String("slug", skill.Slug),
	)
	return skill, nil
}

// Update changes a skill's title or description.
func (s *SkillService) Update(ctx context.Context, id int64, in UpdateSkillInput) (*domain.Skill, error) {
	skill, err := s.skills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		skill.Title = strings.TrimSpace(*in.Title)
		if err := setSlug(skill); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		skill.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.skills.Update(ctx, skill); err != nil {
		return nil, fmt.Errorf("update skill: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "skill updated", slog.Int64("skill_id", skill.ID))
	return skill, nil
}

// Delete removes a skill.
func (s *SkillService) Delete(ctx context.Context, id int64) error {
	if err := s.skills.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "skill deleted", slog.Int64("skill_id", id))
	return nil
}

// ListForUser returns the skills linked to a user.
func (s *SkillService) ListForUser(ctx context.Context, userID int64) ([]domain.Skill, error) {
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	return skills, nil
}

// AssignToUser links a skill to userID, creating the skill first when the
// input names a new one.
func (s *SkillService) AssignToUser(ctx context.Context, userID int64, in AssignSkillInput) (*domain.Skill, error) {
	var (
		skill *domain.Skill
		err   error
	)

	if in.SkillID != nil {
		skill, err = s.skills.GetByID(ctx, *in.SkillID)
		if err != nil {
			return nil, err
		}
	} else {
		if strings.TrimSpace(in.Title) == "" {
			return nil, apperrors.InvalidInput("either skill_id or title is required")
		}
		skill, err = s.Create(ctx, CreateSkillInput{Title: in.Title, Description: in.Description}, userID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.skills.AssignToUser(ctx, userID, skill.ID); err != nil {
		return nil, fmt.Errorf("assign skill: %w", err)
	}

	s.logger.InfoContext(ctx, "skill assigned",
		slog.Int64("user_id", userID),
		slog.Int64("skill_id", skill.ID),
	)
	return skill, nil
}

func (s *SkillService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "skill cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

func setSlug(skill *domain.Skill) error {
	if skill.Title == "" {
		return apperrors.InvalidInput("title is required")
	}
	skill.Slug = slug.Generate(skill.Title)
	if skill.Slug == "" {
		return apperrors.InvalidInput("title must contain at least one letter or digit")
	}
	return nil
}
