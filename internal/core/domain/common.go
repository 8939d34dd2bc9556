package domain

import "time"

// AuditFields holds the row timestamps shared by persisted entities.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
