package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/pkg/database"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

const skillColumns = `id, title, slug, description, created_by, created_at, updated_at`

// SkillRepository implements repository.SkillRepository using PostgreSQL.
type SkillRepository struct {
	db database.DBTX
}

// NewSkillRepository creates a new PostgreSQL-backed skill repository.
func NewSkillRepository(db database.DBTX) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create inserts a new skill.
func (r *SkillRepository) Create(ctx context.Context, s *domain.Skill) (err error) {
	const query = `
		INSERT INTO skills (title, slug, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "skills.Create", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, s.Title, s.Slug, s.Description, s.CreatedBy).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("skill", "title", s.Title)
		}
		return fmt.Errorf("insert skill: %w", err)
	}
	return nil
}

// GetByID retrieves a skill by its ID.
func (r *SkillRepository) GetByID(ctx context.Context, id int64) (_ *domain.Skill, err error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "skills.GetByID", query)
	defer func() { end(err) }()

	var s domain.Skill
	err = r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Title,
		&s.Slug,
		&s.Description,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("skill", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("scan skill: %w", err)
	}
	return &s, nil
}

// List returns a page of skills ordered by title.
func (r *SkillRepository) List(ctx context.Context, offset, limit int) (skills []domain.Skill, total int, err error) {
	const query = `
		SELECT id, title, slug, description, created_by, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM skills
		ORDER BY title, id
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "skills.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.Slug,
			&s.Description,
			&s.CreatedBy,
			&s.CreatedAt,
			&s.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan skill row: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate skill rows: %w", err)
	}

	if len(skills) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT count(*) FROM skills`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count skills: %w", err)
		}
	}

	if skills == nil {
		skills = []domain.Skill{}
	}
	return skills, total, nil
}

// Update modifies a skill's title, slug and description.
func (r *SkillRepository) Update(ctx context.Context, s *domain.Skill) (err error) {
	const query = `
		UPDATE skills SET title = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	ctx, end := database.TraceQuery(ctx, "skills.Update", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, s.Title, s.Slug, s.Description, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("skill", fmt.Sprint(s.ID))
		}
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("skill", "title", s.Title)
		}
		return fmt.Errorf("update skill: %w", err)
	}
	return nil
}

// Delete removes a skill. Links to users and resources cascade.
func (r *SkillRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM skills WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "skills.Delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("skill", fmt.Sprint(id))
	}
	return nil
}

// ListByUser returns the skills linked to a user, most recently linked first.
func (r *SkillRepository) ListByUser(ctx context.Context, userID int64) (skills []domain.Skill, err error) {
	const query = `
		SELECT s.id, s.title, s.slug, s.description, s.created_by, s.created_at, s.updated_at
		FROM skills s
		JOIN user_skills us ON us.skill_id = s.id
		WHERE us.user_id = $1
		ORDER BY us.created_at DESC, s.id`

	ctx, end := database.TraceQuery(ctx, "skills.ListByUser", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.Slug,
			&s.Description,
			&s.CreatedBy,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user skill row: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user skill rows: %w", err)
	}

	if skills == nil {
		skills = []domain.Skill{}
	}
	return skills, nil
}

// AssignToUser links a skill to a user.
func (r *SkillRepository) AssignToUser(ctx context.Context, userID, skillID int64) (err error) {
	const query = `
		INSERT INTO user_skills (user_id, skill_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, skill_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "skills.AssignToUser", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, userID, skillID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("skill", fmt.Sprint(skillID))
		}
		return fmt.Errorf("assign skill: %w", err)
	}
	return nil
}
