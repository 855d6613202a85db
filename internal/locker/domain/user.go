package domain

import (
	"net/url"
	"time"
)

// AvatarBaseURL renders a deterministic pixel-art avatar seeded by username.
const AvatarBaseURL = "https://api.dicebear.com/7.x/pixel-art/svg"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // argon2id PHC string, or bcrypt for imported accounts
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the caller-facing view of a User. It never carries the hash.
type PublicUser struct {
	ID        int64
	Username  string
	Email     string
	AvatarURL string
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

// AvatarURLFor returns the avatar URL assigned to username at creation.
func AvatarURLFor(username string) string {
	return AvatarBaseURL + "?seed=" + url.QueryEscape(username)
}
