package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, avatar_url, school, grade_level, google_sub, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.AvatarURL, &u.School, &u.GradeLevel, &u.GoogleSub, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByGoogleSub retrieves a user by Google subject identifier.
func (r *UserRepository) GetByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_sub = $1`, sub))
}

// Create inserts a new user and populates ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, avatar_url, school, grade_level, google_sub)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.AvatarURL, u.School, u.GradeLevel, u.GoogleSub,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, req *model.UpdateProfileRequest) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = $1, avatar_url = $2, school = $3, grade_level = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING `+userColumns, req.Name, req.AvatarURL, req.School, req.GradeLevel, id))
}

// LinkGoogleSub attaches a Google subject to an existing account.
func (r *UserRepository) LinkGoogleSub(ctx context.Context, id int, sub string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET google_sub = $1, updated_at = NOW() WHERE id = $2`, sub, id)
	return err
}

// List retrieves users with pagination, newest first.
func (r *UserRepository) List(ctx context.Context, page, perPage int) ([]model.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
			&u.AvatarURL, &u.School, &u.GradeLevel, &u.GoogleSub, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
