package repository

import (
	"context"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and fills in its ID and timestamps. A taken
	// email yields an AlreadyExists error; there is no separate existence
	// check.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)

	// UpdateRole changes a user's role and returns the updated user.
	UpdateRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error)

	// UpdateStatus activates or deactivates a user and returns the updated user.
	UpdateStatus(ctx context.Context, id int64, active bool) (*domain.User, error)

	// UpdatePasswordHash replaces the stored password digest.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// SkillRepository defines the interface for skill persistence operations.
type SkillRepository interface {
	// Create inserts a new skill. A taken slug yields an AlreadyExists error.
	Create(ctx context.Context, skill *domain.Skill) error

	// GetByID retrieves a skill by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Skill, error)

	// List returns a page of skills ordered by title, and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.Skill, int, error)

	// Update modifies a skill's title, slug and description.
	Update(ctx context.Context, skill *domain.Skill) error

	// Delete removes a skill and its associations.
	Delete(ctx context.Context, id int64) error

	// ListByUser returns the skills linked to a user.
	ListByUser(ctx context.Context, userID int64) ([]domain.Skill, error)

	// AssignToUser links a skill to a user. Linking twice is not an error.
	AssignToUser(ctx context.Context, userID, skillID int64) error
}

// ResourceRepository defines the interface for learning resource persistence.
type ResourceRepository interface {
	// Create inserts a resource together with its skill links.
	Create(ctx context.Context, resource *domain.LearningResource, skillIDs []int64) error

	// GetByID retrieves a resource with its skills.
	GetByID(ctx context.Context, id int64) (*domain.LearningResource, error)

	// List returns a filtered page of resources with their skills, and the
	// total count matching the filter.
	List(ctx context.Context, filter domain.ResourceFilter, offset, limit int) ([]domain.LearningResource, int, error)

	// Update modifies a resource. When skillIDs is non-nil the skill links are
	// replaced with it.
	Update(ctx context.Context, resource *domain.LearningResource, skillIDs []int64) error

	// Delete removes a resource and its skill links.
	Delete(ctx context.Context, id int64) error
}

// SkillPage is one cached page of the skill listing.
type SkillPage struct {
	Skills []domain.Skill `json:"skills"`
	Total  int            `json:"total"`
}

// SkillCache caches skill listing pages.
type SkillCache interface {
	// Get returns the cached page, or nil on a miss, together with the
	// cache generation it looked in.
	Get(ctx context.Context, offset, limit int) (*SkillPage, int64, error)

	// Set stores a page under generation. A page loaded before an
	// invalidation carries the old generation and is never served.
	Set(ctx context.Context, generation int64, offset, limit int, page *SkillPage) error

	// Invalidate drops every cached page.
	Invalidate(ctx context.Context) error
}
