package mapping

import (
	"database/sql"
	"time"

	"github.com/jobcrew/auth_backend/internal/core/domain"
	"github.com/jobcrew/auth_backend/internal/models"
)

// ToModelPrincipal converts a domain Principal to a model Principal
func ToModelPrincipal(d domain.Principal) models.Principal {
	return models.Principal{
		PrincipalID: d.ID,
		Email:       d.Email,
		Nickname:    d.Nickname,
		Active:      d.Active,
		Role:        string(d.Role),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPrincipal converts a model Principal and its optional Profile to a domain Principal
func ToDomainPrincipal(m models.Principal, p *models.Profile) domain.Principal {
	d := domain.Principal{
		ID:          m.PrincipalID,
		Email:       m.Email,
		Nickname:    m.Nickname,
		Active:      m.Active,
		Role:        domain.Role(m.Role),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if p != nil {
		profile := ToDomainProfile(*p)
		d.Profile = &profile
	}
	return d
}

// ToModelProfile converts a domain Profile to a model Profile
func ToModelProfile(d domain.Profile) models.Profile {
	return models.Profile{
		PrincipalID: d.PrincipalID,
		Username:    nullString(d.Username),
		AvatarURL:   nullString(d.AvatarURL),
		Completed:   d.Completed,
	}
}

// ToDomainProfile converts a model Profile to a domain Profile
func ToDomainProfile(m models.Profile) domain.Profile {
	return domain.Profile{
		PrincipalID: m.PrincipalID,
		Username:    stringPtr(m.Username),
		AvatarURL:   stringPtr(m.AvatarURL),
		Completed:   m.Completed,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
