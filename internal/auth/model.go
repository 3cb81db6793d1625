package auth

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Bio          string
	AvatarURL    string
	IsPremium    bool
	Role         Role
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the verified subject attached to a request context after the
// authentication gate accepts an access token.
type Identity struct {
	UserID string
	Role   Role
}

type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type RegisterResult struct {
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"`
}

type LoginInfo struct {
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	IsPremium bool   `json:"is_premium"`
}

type LoginResult struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	Info         LoginInfo `json:"info"`
}

type RefreshResult struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
