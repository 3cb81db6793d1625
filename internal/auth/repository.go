package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrEmailTaken = errors.New("email already in use")

const uniqueViolationCode = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, bio, avatar_url, is_premium, role, refresh_token, created_at, updated_at`

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row, "email")
}

func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, "id")
}

func scanUser(row *sql.Row, by string) (User, error) {
	var user User
	var refreshToken sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Bio, &user.AvatarURL,
		&user.IsPremium, &user.Role, &refreshToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("query user by %s: %w", by, err)
	}
	if refreshToken.Valid {
		value := refreshToken.String
		user.RefreshToken = &value
	}
	return user, nil
}

// Create inserts a new account with the default role. The email uniqueness
// constraint is the final arbiter for concurrent registrations.
func (r *Repository) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:           id.String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role), now)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// UpdateRefreshToken overwrites the single stored refresh token for the
// account unconditionally.
func (r *Repository) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = $2, updated_at = $3
		WHERE id = $1
	`, userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

// UpdateRole reports whether a row actually changed so that callers can
// distinguish a no-op retry from a real promotion.
func (r *Repository) UpdateRole(ctx context.Context, userID string, role Role) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET role = $2, updated_at = $3
		WHERE id = $1 AND role <> $2
	`, userID, string(role), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update role rows affected: %w", err)
	}
	return affected > 0, nil
}

// EnsureAdmin seeds the first admin account. Existing admins win; an existing
// account with the seed email is promoted and its password reset.
func (r *Repository) EnsureAdmin(ctx context.Context, username, email, passwordHash string) error {
	var existingID string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE role = 'admin' LIMIT 1`).Scan(&existingID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select existing admin: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate admin id: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'admin', $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET role = 'admin', password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at
	`, id.String(), username, email, passwordHash, now)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
