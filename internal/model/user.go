package model

import "time"

// Role is the coarse role derived from an authenticated email on every
// request. It is never stored on the user record.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleInstitute Role = "institute"
	RoleStaff     Role = "staff"
	RoleGeneral   Role = "general"
)

// User is an account known to the platform. Most users arrive through the
// identity provider; PasswordHash is set only for locally seeded accounts
// (the platform admin).
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest signs a user in. Either local credentials (email + password)
// or a provider exchange token minted by the trusted frontend after the
// identity provider callback must be supplied. The exchange token carries
// the authenticated profile; Name and AvatarURL are client hints only and
// are never trusted on their own.
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Name      string `json:"name" binding:"omitempty,max=100"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
	Password  string `json:"password" binding:"omitempty,min=6,max=128"`
	IDToken   string `json:"id_token" binding:"omitempty"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
	Role  Role   `json:"role"`
}

// Identity is the resolved per-request identity: an authenticated email
// plus a derived role. Ephemeral, recomputed on every request.
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity is the platform admin.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Statistics is the admin dashboard aggregate.
type Statistics struct {
	Institutes struct {
		Total    int `json:"total"`
		Approved int `json:"approved"`
		Pending  int `json:"pending"`
	} `json:"institutes"`
	Staff struct {
		Total    int `json:"total"`
		Verified int `json:"verified"`
	} `json:"staff"`
	Memories struct {
		Total int `json:"total"`
	} `json:"memories"`
}
