package models

import (
	"database/sql"
)

// Identity represents a row of the identities table.
type Identity struct {
	IdentityID         int64          `db:"identity_id"`
	PrincipalID        int64          `db:"principal_id"`
	Provider           string         `db:"provider"`
	Email              string         `db:"email"`
	PasswordHash       sql.NullString `db:"password_hash"`
	ProviderSubjectID  sql.NullString `db:"provider_subject_id"`
	RefreshToken       sql.NullString `db:"refresh_token"`
	RefreshTokenExpiry sql.NullTime   `db:"refresh_token_expiry"`
	LastLoginAt        sql.NullTime   `db:"last_login_at"`
	AuditFields
}
