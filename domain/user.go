package domain

import "time"

// User represents a registered account. The password hash and salt never
// leave the persistence and authentication layers.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials is the narrow projection loaded during sign-in: only the fields
// needed to verify a password and issue a session.
type Credentials struct {
	ID           string
	Salt         string
	PasswordHash string
}

// PublicView exposes the non-secret subset of a user.
type PublicView struct {
	Name string `json:"name"`
}

func (u *User) Public() PublicView {
	if u == nil {
		return PublicView{}
	}
	return PublicView{Name: u.Name}
}
