package domain

import "time"

// IdentifierType tells which record the identifier claim of a token points at.
type IdentifierType string

const (
	// IdentifierAuthID marks access tokens: the identifier is an Identity id.
	IdentifierAuthID IdentifierType = "auth_id"
	// IdentifierUserID marks refresh tokens: the identifier is a Principal id.
	IdentifierUserID IdentifierType = "user_id"
)

// Claims is the decoded payload of a token signed by the token issuer.
type Claims struct {
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"identifierType"`
	TokenID        string         `json:"jti"`
	ExpiresAt      time.Time      `json:"exp"`
}

// TokenBundle is returned by every login and refresh flow.
type TokenBundle struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	ProfileCompleted      bool      `json:"profileCompleted"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}
