package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jobcrew/auth_backend/internal/core/services"

// Analytics events.
const (
	eventLogin   = "auth_login"
	eventRefresh = "auth_refresh"
	eventLogout  = "auth_logout"
)

// sessionIssuer issues a token pair and stores the refresh token on the identity.
type sessionIssuer struct {
	tokens portssvc.TokenIssuerSvc
	now    func() time.Time
}

// NewSessionIssuer creates the issue-and-persist step shared by every login flow.
func NewSessionIssuer(tokens portssvc.TokenIssuerSvc, now func() time.Time) portssvc.SessionIssuerSvc {
	if now == nil {
		now = time.Now
	}
	return &sessionIssuer{tokens: tokens, now: now}
}

// IssueAndPersist must run inside uow's transaction so the refresh token is
// written together with the read that selected identity.
func (s *sessionIssuer) IssueAndPersist(ctx context.Context, uow portsrepo.UnitOfWork, identity *domain.Identity) (*domain.TokenBundle, error) {
	access, _, err := s.tokens.IssueAccess(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExpiry, err := s.tokens.IssueRefresh(identity.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := uow.Identities().SetRefreshToken(ctx, identity.ID, refresh, refreshExpiry, s.now()); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	principal, err := uow.Principals().FindPrincipalByID(ctx, identity.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("load principal %d: %w", identity.PrincipalID, err)
	}

	return &domain.TokenBundle{
		AccessToken:           access,
		RefreshToken:          refresh,
		ProfileCompleted:      principal.ProfileCompleted(),
		RefreshTokenExpiresAt: refreshExpiry,
	}, nil
}

// sessionService implements the login, refresh and logout use cases.
type sessionService struct {
	BaseService
	repos     portsrepo.RepositoryProvider
	tokens    portssvc.TokenIssuerSvc
	issuer    portssvc.SessionIssuerSvc
	providers portssvc.ProviderRegistrySvc
	tracker   portssvc.EventTracker
	tracer    trace.Tracer
	now       func() time.Time
}

// SessionServiceOption configures a sessionService.
type SessionServiceOption func(*sessionService)

// WithSessionClock overrides the clock used for refresh-token validity checks.
func WithSessionClock(now func() time.Time) SessionServiceOption {
	return func(s *sessionService) {
		s.now = now
	}
}

// WithEventTracker sends login, refresh and logout events to tracker.
func WithEventTracker(tracker portssvc.EventTracker) SessionServiceOption {
	return func(s *sessionService) {
		s.tracker = tracker
	}
}

// NewSessionService creates the session orchestrator.
func NewSessionService(
	repos portsrepo.RepositoryProvider,
	tokens portssvc.TokenIssuerSvc,
	issuer portssvc.SessionIssuerSvc,
	providers portssvc.ProviderRegistrySvc,
	opts ...SessionServiceOption,
) portssvc.SessionSvcFacade {
	s := &sessionService{
		repos:     repos,
		tokens:    tokens,
		issuer:    issuer,
		providers: providers,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.SessionSvcFacade = (*sessionService)(nil)

func (s *sessionService) Login(ctx context.Context, email, password string, lc domain.LoginContext) (*domain.TokenBundle, error) {
	ctx, span := s.tracer.Start(ctx, "session.Login")
	defer span.End()

	var (
		bundle      *domain.TokenBundle
		principalID int64
	)
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		identity, err := uow.Identities().FindByCredentials(ctx, email, domain.ProviderLocal)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrBadCredential
			}
			return err
		}
		// Unknown email and wrong password report the same error.
		if identity.PasswordHash == nil || !utils.CheckPasswordHash(password, *identity.PasswordHash) {
			return apperrors.ErrBadCredential
		}

		principalID = identity.PrincipalID
		bundle, err = s.issuer.IssueAndPersist(ctx, uow, identity)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Local login failed", err, slog.String("email", email))
	}

	span.SetAttributes(attribute.Int64("auth.principal_id", principalID))
	s.LogInfo(ctx, "User logged in",
		slog.String("email", email),
		slog.Int64("principal_id", principalID),
		slog.String("client_ip", lc.ClientIP),
		slog.String("user_agent", lc.UserAgent))
	s.track(principalID, eventLogin, map[string]any{"provider": string(domain.ProviderLocal)})
	return bundle, nil
}

func (s *sessionService) SocialLogin(ctx context.Context, providerTag string, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error) {
	ctx, span := s.tracer.Start(ctx, "session.SocialLogin", trace.WithAttributes(attribute.String("auth.provider", providerTag)))
	defer span.End()

	processor, err := s.providers.Lookup(providerTag)
	if err != nil {
		return nil, s.fail(ctx, span, "Social login rejected", err, slog.String("provider", providerTag))
	}
	bundle, err := processor.Process(ctx, attrs, lc)
	if err != nil {
		return nil, s.fail(ctx, span, "Social login failed", err, slog.String("provider", providerTag))
	}
	return bundle, nil
}

// Refresh renews the access token. The refresh token is returned unchanged and
// a stale stored token is left in place for the next login to overwrite.
func (s *sessionService) Refresh(ctx context.Context, refreshToken, expiredAccessToken string) (*domain.TokenBundle, error) {
	ctx, span := s.tracer.Start(ctx, "session.Refresh")
	defer span.End()

	if strings.TrimSpace(refreshToken) == "" {
		return nil, s.fail(ctx, span, "Refresh rejected", apperrors.ErrInvalidRefreshToken)
	}

	var (
		bundle      *domain.TokenBundle
		principalID int64
	)
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		identity, err := s.lookupRefresh(ctx, uow, refreshToken)
		if err != nil {
			return err
		}
		if !identity.IsRefreshValid(refreshToken, s.now()) {
			return apperrors.ErrExpiredRefreshToken
		}

		tokenIdentity, err := s.tokens.ExtractIdentifierAllowExpired(expiredAccessToken, domain.IdentifierAuthID)
		if err != nil {
			s.LogWarn(ctx, "Expired access token could not be decoded", slog.String("error", err.Error()))
			return apperrors.ErrInvalidRefreshToken.WithDetail("access token is not valid")
		}
		if tokenIdentity != strconv.FormatInt(identity.ID, 10) {
			s.LogWarn(ctx, "Access token identity mismatch",
				slog.String("token_identity", tokenIdentity),
				slog.Int64("stored_identity", identity.ID))
			return apperrors.ErrInvalidRefreshToken.WithDetail("access token does not match refresh token")
		}

		access, _, err := s.tokens.IssueAccess(identity.ID)
		if err != nil {
			return fmt.Errorf("issue access token: %w", err)
		}
		principal, err := uow.Principals().FindPrincipalByID(ctx, identity.PrincipalID)
		if err != nil {
			return fmt.Errorf("load principal %d: %w", identity.PrincipalID, err)
		}

		principalID = identity.PrincipalID
		bundle = &domain.TokenBundle{
			AccessToken:           access,
			RefreshToken:          refreshToken,
			ProfileCompleted:      principal.ProfileCompleted(),
			RefreshTokenExpiresAt: *identity.RefreshTokenExpiry,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Token refresh failed", err)
	}

	s.LogInfo(ctx, "Access token refreshed", slog.Int64("principal_id", principalID))
	s.track(principalID, eventRefresh, map[string]any{"rotated": false})
	return bundle, nil
}

// RefreshLegacy renews the session from the refresh token alone. A stale
// token is burned before the request fails; a valid one is rotated.
func (s *sessionService) RefreshLegacy(ctx context.Context, refreshToken string) (*domain.TokenBundle, error) {
	ctx, span := s.tracer.Start(ctx, "session.RefreshLegacy")
	defer span.End()

	if strings.TrimSpace(refreshToken) == "" {
		return nil, s.fail(ctx, span, "Refresh rejected", apperrors.ErrInvalidRefreshToken)
	}

	var (
		bundle      *domain.TokenBundle
		principalID int64
		burned      bool
	)
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		identity, err := s.lookupRefresh(ctx, uow, refreshToken)
		if err != nil {
			return err
		}
		principalID = identity.PrincipalID

		if !identity.IsRefreshValid(refreshToken, s.now()) {
			// The burn has to commit, so the failure is reported after the transaction.
			if err := uow.Identities().InvalidateRefreshToken(ctx, identity.ID); err != nil {
				return fmt.Errorf("burn stale refresh token: %w", err)
			}
			burned = true
			return nil
		}

		bundle, err = s.issuer.IssueAndPersist(ctx, uow, identity)
		return err
	})
	if err == nil && burned {
		s.LogInfo(ctx, "Stale refresh token burned", slog.Int64("principal_id", principalID))
		err = apperrors.ErrExpiredRefreshToken
	}
	if err != nil {
		return nil, s.fail(ctx, span, "Legacy token refresh failed", err)
	}

	s.LogInfo(ctx, "Session refreshed", slog.Int64("principal_id", principalID))
	s.track(principalID, eventRefresh, map[string]any{"rotated": true})
	return bundle, nil
}

// Logout clears the stored refresh token. Unknown or empty tokens succeed.
func (s *sessionService) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := s.tracer.Start(ctx, "session.Logout")
	defer span.End()

	if strings.TrimSpace(refreshToken) == "" {
		s.LogWarn(ctx, "Logout attempt with empty refresh token")
		return nil
	}

	var principalID int64
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		identity, err := uow.Identities().FindByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil
			}
			return err
		}
		principalID = identity.PrincipalID
		return uow.Identities().InvalidateRefreshToken(ctx, identity.ID)
	})
	if err != nil {
		return s.fail(ctx, span, "Logout failed", err)
	}

	if principalID != 0 {
		s.LogInfo(ctx, "User logged out", slog.Int64("principal_id", principalID))
		s.track(principalID, eventLogout, nil)
	}
	return nil
}

func (s *sessionService) CurrentAccount(ctx context.Context, identityID int64) (*domain.Account, error) {
	identity, err := s.repos.IdentityRepo.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized.WithDetail("identity no longer exists")
		}
		return nil, fmt.Errorf("load identity %d: %w", identityID, err)
	}
	principal, err := s.repos.PrincipalRepo.FindPrincipalByID(ctx, identity.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("load principal %d: %w", identity.PrincipalID, err)
	}
	return &domain.Account{Identity: *identity, Principal: *principal}, nil
}

func (s *sessionService) lookupRefresh(ctx context.Context, uow portsrepo.UnitOfWork, refreshToken string) (*domain.Identity, error) {
	identity, err := uow.Identities().FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	return identity, nil
}

// fail records err on span and logs it. Classified errors are expected
// outcomes and logged at warn level.
func (s *sessionService) fail(ctx context.Context, span trace.Span, msg string, err error, attrs ...any) error {
	span.RecordError(err)
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code != apperrors.ErrInternal.Code {
		span.SetAttributes(attribute.String("auth.error_code", appErr.Code))
		s.LogWarn(ctx, msg, append([]any{slog.String("code", appErr.Code)}, attrs...)...)
		return err
	}
	span.SetStatus(codes.Error, msg)
	s.LogError(ctx, err, msg, attrs...)
	return err
}

func (s *sessionService) track(principalID int64, event string, props map[string]any) {
	if s.tracker == nil {
		return
	}
	s.tracker.Enqueue(strconv.FormatInt(principalID, 10), event, props)
}
