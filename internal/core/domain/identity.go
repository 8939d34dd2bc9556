package domain

import "time"

// Identity is the persisted credential record binding a provider account to a Principal.
// Local identities carry a password hash; social ones carry the provider subject id.
// Only the current refresh token is stored.
type Identity struct {
	ID                 int64      `json:"id"`
	PrincipalID        int64      `json:"principalId"`
	Provider           Provider   `json:"provider"`
	Email              string     `json:"email"`
	PasswordHash       *string    `json:"-"`
	ProviderSubjectID  *string    `json:"providerSubjectId,omitempty"`
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	LastLoginAt        *time.Time `json:"lastLoginAt,omitempty"`
	AuditFields
}

// NewLocalIdentity builds an unsaved LOCAL identity.
func NewLocalIdentity(principalID int64, email, passwordHash string) Identity {
	return Identity{
		PrincipalID:  principalID,
		Provider:     ProviderLocal,
		Email:        email,
		PasswordHash: &passwordHash,
	}
}

// NewSocialIdentity builds an unsaved identity for an external provider account.
func NewSocialIdentity(principalID int64, provider Provider, email, subjectID string) Identity {
	return Identity{
		PrincipalID:       principalID,
		Provider:          provider,
		Email:             email,
		ProviderSubjectID: &subjectID,
	}
}

// IsRefreshValid reports whether presented is the stored refresh token and the
// stored expiry lies strictly after now. A token at its expiry instant is expired.
func (i Identity) IsRefreshValid(presented string, now time.Time) bool {
	if i.RefreshToken == nil || i.RefreshTokenExpiry == nil {
		return false
	}
	return *i.RefreshToken == presented && i.RefreshTokenExpiry.After(now)
}

// Account is an identity together with the principal it belongs to.
type Account struct {
	Identity  Identity
	Principal Principal
}
