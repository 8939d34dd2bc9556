package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/platform/config"
)

// tokenClaims is the JWT payload of access and refresh tokens.
type tokenClaims struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
	jwt.RegisteredClaims
}

// tokenService signs HS256 tokens with the process-wide secret. It keeps no
// mutable state.
type tokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenServiceOption configures a tokenService.
type TokenServiceOption func(*tokenService)

// WithTokenClock overrides the clock used for issuing and verifying tokens.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(s *tokenService) {
		s.now = now
	}
}

// NewTokenService creates the token issuer from cfg.
func NewTokenService(cfg *config.Config, opts ...TokenServiceOption) portssvc.TokenIssuerSvc {
	s := &tokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.TokenIssuerSvc = (*tokenService)(nil)

func (s *tokenService) IssueAccess(identityID int64) (string, time.Time, error) {
	return s.issue(strconv.FormatInt(identityID, 10), domain.IdentifierAuthID, s.accessTTL)
}

func (s *tokenService) IssueRefresh(principalID int64) (string, time.Time, error) {
	return s.issue(strconv.FormatInt(principalID, 10), domain.IdentifierUserID, s.refreshTTL)
}

func (s *tokenService) issue(identifier string, idType domain.IdentifierType, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	// NumericDate has second precision; report the expiry the token actually carries.
	expiresAt := now.Add(ttl).Truncate(time.Second)
	claims := tokenClaims{
		Identifier:     identifier,
		IdentifierType: string(idType),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperrors.ErrInternal.Wrap(err)
	}
	return signed, expiresAt, nil
}

func (s *tokenService) Verify(token string) (*domain.Claims, error) {
	return s.parse(token, false)
}

func (s *tokenService) ExtractIdentifier(token string, expected domain.IdentifierType) (string, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return "", err
	}
	return identifierOf(claims, expected)
}

func (s *tokenService) ExtractIdentifierAllowExpired(token string, expected domain.IdentifierType) (string, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return "", err
	}
	return identifierOf(claims, expected)
}

func (s *tokenService) parse(token string, allowExpired bool) (*domain.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.ErrTokenInvalid.WithDetail("empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if allowExpired {
		// Signature is still checked; only the registered-claim validation is skipped.
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired.Wrap(err)
		}
		return nil, apperrors.ErrTokenInvalid.Wrap(err)
	}

	out := &domain.Claims{
		Identifier:     claims.Identifier,
		IdentifierType: domain.IdentifierType(claims.IdentifierType),
		TokenID:        claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func identifierOf(claims *domain.Claims, expected domain.IdentifierType) (string, error) {
	if strings.TrimSpace(claims.Identifier) == "" {
		return "", apperrors.ErrTokenInvalid.WithDetail("identifier claim is missing")
	}
	if claims.IdentifierType != expected {
		return "", apperrors.ErrTokenInvalid.WithDetail("unexpected identifier type " + string(claims.IdentifierType))
	}
	return claims.Identifier, nil
}
