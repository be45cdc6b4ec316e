package domain

import "time"

// Role names. Capabilities are explicit sets per role (see permissions.go),
// not a numeric hierarchy.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// ValidRole reports whether s is one of the four known roles.
func ValidRole(s string) bool {
	switch s {
	case RoleOwner, RoleAdmin, RoleStaff, RoleUser:
		return true
	}
	return false
}

// DefaultProfilePic is assigned to accounts created without an avatar.
const DefaultProfilePic = "https://raw.githubusercontent.com/visualcraft/assets/main/nopfp.png"

// Socials holds optional community contact handles shown on a profile.
type Socials struct {
	Discord  string `json:"discord,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
	YouTube  string `json:"youtube,omitempty"`
}

// User models an actor in the marketplace: an authenticated account with a
// role, lifecycle flags and display fields. The record in the external store
// is authoritative; in-process copies (session state, actor cache) are
// best-effort snapshots.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"-"` // synthetic login address, never rendered
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	Banned            bool      `json:"banned"`
	Muted             bool      `json:"muted"`
	ProfilePic        string    `json:"profilePic,omitempty"`
	ProfileBorder     string    `json:"profileBorder,omitempty"`
	CustomColor       string    `json:"customColor,omitempty"`
	CustomBorderWidth int       `json:"customBorderWidth,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Socials           Socials   `json:"socials"`
	CreatedAt         time.Time `json:"created_at"`
}

// Clone returns an independent copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
