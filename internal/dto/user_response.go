package dto

import (
	"github.com/jobcrew/auth_backend/internal/core/domain"
)

// SignupResponse is returned by POST /auth/signup.
type SignupResponse struct {
	PrincipalID int64  `json:"principalId"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
}

// ToSignupResponse converts a freshly created principal to its response DTO.
func ToSignupResponse(p *domain.Principal) SignupResponse {
	return SignupResponse{
		PrincipalID: p.ID,
		Email:       p.Email,
		Nickname:    p.Nickname,
	}
}

// MeResponse describes the account behind the presented access token.
type MeResponse struct {
	IdentityID       int64           `json:"identityId"`
	PrincipalID      int64           `json:"principalId"`
	Email            string          `json:"email"`
	Nickname         string          `json:"nickname"`
	Provider         domain.Provider `json:"provider"`
	Role             domain.Role     `json:"role"`
	ProfileCompleted bool            `json:"profileCompleted"`
}

// ToMeResponse converts a domain.Account to MeResponse.
func ToMeResponse(a *domain.Account) MeResponse {
	return MeResponse{
		IdentityID:       a.Identity.ID,
		PrincipalID:      a.Principal.ID,
		Email:            a.Principal.Email,
		Nickname:         a.Principal.Nickname,
		Provider:         a.Identity.Provider,
		Role:             a.Principal.Role,
		ProfileCompleted: a.Principal.ProfileCompleted(),
	}
}
