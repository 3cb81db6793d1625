package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so the two cases stay indistinguishable to the caller.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

// Service orchestrates the register, login and refresh flows over the user
// store, the credential hasher and the token issuer.
type Service struct {
	repo   *Repository
	issuer *TokenIssuer
}

func NewService(repo *Repository, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

func (s *Service) Register(ctx context.Context, username, email, password string) (RegisterResult, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return RegisterResult{}, err
	}

	user, err := s.repo.Create(ctx, username, email, hash)
	if err != nil {
		return RegisterResult{}, err
	}

	refresh, err := s.rotateRefreshToken(ctx, user.ID)
	if err != nil {
		return RegisterResult{}, err
	}

	access, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{
		User:         PublicUser{ID: user.ID, Username: user.Username, Email: user.Email},
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessExpiresIn(),
	}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	refresh, err := s.rotateRefreshToken(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	access, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessExpiresIn(),
		Info: LoginInfo{
			Username:  user.Username,
			Role:      user.Role,
			IsPremium: user.IsPremium,
		},
	}, nil
}

// Refresh exchanges the stored opaque token for a new access token and a new
// refresh token. The supplied value must match the stored one exactly; after
// rotation the previous value is dead.
func (s *Service) Refresh(ctx context.Context, email, refreshToken string) (RefreshResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshResult{}, ErrUserNotFound
		}
		return RefreshResult{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return RefreshResult{}, ErrInvalidRefreshToken
	}

	refresh, err := s.rotateRefreshToken(ctx, user.ID)
	if err != nil {
		return RefreshResult{}, err
	}

	access, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.accessExpiresIn()}, nil
}

// accessExpiresIn reports the access token lifetime in seconds, for clients
// that schedule refreshes instead of decoding the token.
func (s *Service) accessExpiresIn() int64 {
	return int64(s.issuer.TTL().Seconds())
}

func (s *Service) rotateRefreshToken(ctx context.Context, userID string) (string, error) {
	refresh, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateRefreshToken(ctx, userID, refresh); err != nil {
		return "", err
	}
	return refresh, nil
}

// SeedAdmin creates the initial admin account from the environment. There is
// no registration path that yields an admin, so deployments bootstrap one here.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(strings.ToLower(username))
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)

	if username == "" && email == "" && password == "" {
		return nil
	}
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD are required together")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.EnsureAdmin(ctx, username, email, hash)
}
