package domain

// Role is the authorization role of a Principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the core user record. It owns at most one Profile.
type Principal struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Active   bool     `json:"active"`
	Role     Role     `json:"role"`
	Profile  *Profile `json:"profile,omitempty"`
	AuditFields
}

// Profile holds display attributes of a Principal.
type Profile struct {
	PrincipalID int64   `json:"principalId"`
	Username    *string `json:"username,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	Completed   bool    `json:"completed"`
}

// NewPrincipal builds an active USER principal with an empty, incomplete profile.
func NewPrincipal(email, nickname string) (Principal, Profile) {
	return Principal{
		Email:    email,
		Nickname: nickname,
		Active:   true,
		Role:     RoleUser,
	}, Profile{Completed: false}
}

// ProfileCompleted reports whether the principal finished onboarding.
func (p Principal) ProfileCompleted() bool {
	return p.Profile != nil && p.Profile.Completed
}
