package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrEmailTaken = errors.New("email already in use")

type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type ProfileUpdate struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, bio, avatar_url
		FROM users
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Bio, &p.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

// Credentials returns the username and password hash needed to confirm a
// destructive action against the account.
func (r *Repository) Credentials(ctx context.Context, id string) (string, string, error) {
	var username, passwordHash string
	err := r.db.QueryRowContext(ctx, `
		SELECT username, password_hash
		FROM users
		WHERE id = $1
	`, id).Scan(&username, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", err
		}
		return "", "", fmt.Errorf("query credentials: %w", err)
	}
	return username, passwordHash, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, input ProfileUpdate) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5, bio = $6, updated_at = $7
		WHERE id = $1
	`, id, input.Username, input.Email, input.FirstName, input.LastName, input.Bio, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, ErrEmailTaken
		}
		return false, fmt.Errorf("update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update profile rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) UpdateAvatar(ctx context.Context, id, avatarURL string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET avatar_url = $2, updated_at = $3
		WHERE id = $1
	`, id, avatarURL, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update avatar: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update avatar rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows affected: %w", err)
	}
	return affected > 0, nil
}
