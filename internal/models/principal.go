package models

import (
	"database/sql"
)

// Principal represents a row of the principals table.
type Principal struct {
	PrincipalID int64  `db:"principal_id"`
	Email       string `db:"email"`
	Nickname    string `db:"nickname"`
	Active      bool   `db:"active"`
	Role        string `db:"role"`
	AuditFields
}

// Profile represents a row of the profiles table.
type Profile struct {
	PrincipalID int64          `db:"principal_id"`
	Username    sql.NullString `db:"username"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	Completed   bool           `db:"completed"`
}
