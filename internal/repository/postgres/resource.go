package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/pkg/database"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// ResourceRepository implements repository.ResourceRepository using PostgreSQL.
type ResourceRepository struct {
	db database.DBTX
}

// NewResourceRepository creates a new PostgreSQL-backed learning resource
// repository.
func NewResourceRepository(db database.DBTX) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a resource and its skill links in one transaction, then
// loads the linked skills into it.
func (r *ResourceRepository) Create(ctx context.Context, res *domain.LearningResource, skillIDs []int64) (err error) {
	const query = `
		INSERT INTO learning_resources (title, description, url, resource_type, difficulty, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "resources.Create", query)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, query,
		res.Title,
		res.Description,
		res.URL,
		res.Type,
		res.Difficulty,
		res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}

	if err := linkSkills(ctx, tx, res.ID, skillIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	skills, err := r.loadSkills(ctx, []int64{res.ID})
	if err != nil {
		return err
	}
	res.Skills = skills[res.ID]
	if res.Skills == nil {
		res.Skills = []domain.Skill{}
	}
	return nil
}

// GetByID retrieves a resource with its skills.
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (_ *domain.LearningResource, err error) {
	const query = `
		SELECT id, title, description, url, resource_type, difficulty, created_by, created_at, updated_at
		FROM learning_resources
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "resources.GetByID", query)
	defer func() { end(err) }()

	var res domain.LearningResource
	err = r.db.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&res.URL,
		&res.Type,
		&res.Difficulty,
		&res.CreatedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("learning resource", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}

	skills, err := r.loadSkills(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	res.Skills = skills[id]
	if res.Skills == nil {
		res.Skills = []domain.Skill{}
	}
	return &res, nil
}

// List returns a filtered page of resources, newest first.
func (r *ResourceRepository) List(ctx context.Context, filter domain.ResourceFilter, offset, limit int) (resources []domain.LearningResource, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.SkillID > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM resource_skills rs WHERE rs.resource_id = lr.id AND rs.skill_id = $%d)", argIndex))
		args = append(args, filter.SkillID)
		argIndex++
	}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("lr.resource_type = $%d", argIndex))
		args = append(args, filter.Type)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT lr.id, lr.title, lr.description, lr.url, lr.resource_type, lr.difficulty,
		       lr.created_by, lr.created_at, lr.updated_at,
		       count(*) OVER() AS total_count
		FROM learning_resources lr
		%s
		ORDER BY lr.created_at DESC, lr.id DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)
	filterArgs := args
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "resources.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.LearningResource
		if err := rows.Scan(
			&res.ID,
			&res.Title,
			&res.Description,
			&res.URL,
			&res.Type,
			&res.Difficulty,
			&res.CreatedBy,
			&res.CreatedAt,
			&res.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource row: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resource rows: %w", err)
	}

	if len(resources) == 0 {
		// A page past the end has no rows to carry the window count.
		if offset > 0 {
			countQuery := "SELECT count(*) FROM learning_resources lr " + whereClause
			if err := r.db.QueryRow(ctx, countQuery, filterArgs...).Scan(&total); err != nil {
				return nil, 0, fmt.Errorf("count resources: %w", err)
			}
		}
		return []domain.LearningResource{}, total, nil
	}

	ids := make([]int64, len(resources))
	for i := range resources {
		ids[i] = resources[i].ID
	}
	skills, err := r.loadSkills(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range resources {
		resources[i].Skills = skills[resources[i].ID]
		if resources[i].Skills == nil {
			resources[i].Skills = []domain.Skill{}
		}
	}

	return resources, total, nil
}

// Update modifies a resource and, when skillIDs is non-nil, replaces its
// skill links.
func (r *ResourceRepository) Update(ctx context.Context, res *domain.LearningResource, skillIDs []int64) (err error) {
	const query = `
		UPDATE learning_resources
		SET title = $1, description = $2, url = $3, resource_type = $4, difficulty = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_by, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "resources.Update", query)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, query,
		res.Title,
		res.Description,
		res.URL,
		res.Type,
		res.Difficulty,
		res.ID,
	).Scan(&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("learning resource", fmt.Sprint(res.ID))
		}
		return fmt.Errorf("update resource: %w", err)
	}

	if skillIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM resource_skills WHERE resource_id = $1`, res.ID); err != nil {
			return fmt.Errorf("clear resource skills: %w", err)
		}
		if err := linkSkills(ctx, tx, res.ID, skillIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	skills, err := r.loadSkills(ctx, []int64{res.ID})
	if err != nil {
		return err
	}
	res.Skills = skills[res.ID]
	if res.Skills == nil {
		res.Skills = []domain.Skill{}
	}
	return nil
}

// Delete removes a resource. Its skill links cascade.
func (r *ResourceRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM learning_resources WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "resources.Delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("learning resource", fmt.Sprint(id))
	}
	return nil
}

// linkSkills inserts resource_skills rows. Unknown skill IDs surface as
// invalid input through the foreign key.
func linkSkills(ctx context.Context, tx pgx.Tx, resourceID int64, skillIDs []int64) error {
	if len(skillIDs) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO resource_skills (resource_id, skill_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`,
		resourceID, skillIDs,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.InvalidInput("skill_ids references a skill that does not exist")
		}
		return fmt.Errorf("link resource skills: %w", err)
	}
	return nil
}

// loadSkills returns the skills of each given resource, keyed by resource ID.
func (r *ResourceRepository) loadSkills(ctx context.Context, resourceIDs []int64) (map[int64][]domain.Skill, error) {
	const query = `
		SELECT rs.resource_id, s.id, s.title, s.slug, s.description, s.created_by, s.created_at, s.updated_at
		FROM resource_skills rs
		JOIN skills s ON s.id = rs.skill_id
		WHERE rs.resource_id = ANY($1)
		ORDER BY s.title, s.id`

	rows, err := r.db.Query(ctx, query, resourceIDs)
	if err != nil {
		return nil, fmt.Errorf("load resource skills: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Skill, len(resourceIDs))
	for rows.Next() {
		var (
			resourceID int64
			s          domain.Skill
		)
		if err := rows.Scan(
			&resourceID,
			&s.ID,
			&s.Title,
			&s.Slug,
			&s.Description,
			&s.CreatedBy,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resource skill row: %w", err)
		}
		out[resourceID] = append(out[resourceID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource skill rows: %w", err)
	}
	return out, nil
}
