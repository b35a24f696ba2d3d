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

const userColumns = `id, name, email, password_hash, is_active, role, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Uniqueness of the email is enforced by the
// users_email_key constraint alone.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	const query = `
		INSERT INTO users (name, email, password_hash, is_active, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "users.Create", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.IsActive,
		u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, "users.GetByID", query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, "users.GetByEmail", query, email)
}

// List returns a page of users, newest first.
func (r *UserRepository) List(ctx context.Context, offset, limit int) (users []domain.User, total int, err error) {
	const query = `
		SELECT id, name, email, password_hash, is_active, role, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "users.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.IsActive,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(users) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count users: %w", err)
		}
	}

	if users == nil {
		users = []domain.User{}
	}
	return users, total, nil
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error) {
	query := `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	return r.scanUser(ctx, "users.UpdateRole", query, role, id)
}

// UpdateStatus activates or deactivates a user.
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, active bool) (*domain.User, error) {
	query := `
		UPDATE users SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	return r.scanUser(ctx, "users.UpdateStatus", query, active, id)
}

// UpdatePasswordHash replaces the stored password digest.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) (err error) {
	const query = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "users.UpdatePasswordHash", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", fmt.Sprint(id))
	}
	return nil
}

// scanUser runs a query expected to return a single user row. A missing row
// is reported as apperrors.ErrNotFound.
func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var u domain.User
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
