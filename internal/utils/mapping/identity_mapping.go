package mapping

import (
	"github.com/jobcrew/auth_backend/internal/core/domain"
	"github.com/jobcrew/auth_backend/internal/models"
)

// ToModelIdentity converts a domain Identity to a model Identity
func ToModelIdentity(d domain.Identity) models.Identity {
	return models.Identity{
		IdentityID:         d.ID,
		PrincipalID:        d.PrincipalID,
		Provider:           string(d.Provider),
		Email:              d.Email,
		PasswordHash:       nullString(d.PasswordHash),
		ProviderSubjectID:  nullString(d.ProviderSubjectID),
		RefreshToken:       nullString(d.RefreshToken),
		RefreshTokenExpiry: nullTime(d.RefreshTokenExpiry),
		LastLoginAt:        nullTime(d.LastLoginAt),
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainIdentity converts a model Identity to a domain Identity
func ToDomainIdentity(m models.Identity) domain.Identity {
	return domain.Identity{
		ID:                 m.IdentityID,
		PrincipalID:        m.PrincipalID,
		Provider:           domain.Provider(m.Provider),
		Email:              m.Email,
		PasswordHash:       stringPtr(m.PasswordHash),
		ProviderSubjectID:  stringPtr(m.ProviderSubjectID),
		RefreshToken:       stringPtr(m.RefreshToken),
		RefreshTokenExpiry: timePtr(m.RefreshTokenExpiry),
		LastLoginAt:        timePtr(m.LastLoginAt),
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}
