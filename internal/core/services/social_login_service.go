package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
)

const (
	defaultGoogleNickname = "구글사용자"
	defaultKakaoNickname  = "카카오사용자"
	defaultNaverNickname  = "네이버사용자"
)

// socialLogin resolves or creates the identity of a normalized provider
// account and issues its session. Every provider variant embeds it.
type socialLogin struct {
	BaseService
	repos  portsrepo.RepositoryProvider
	issuer portssvc.SessionIssuerSvc
}

type normalizer interface {
	Provider() domain.Provider
	Normalize(attrs map[string]any) (domain.SocialProfile, error)
}

func (l *socialLogin) login(ctx context.Context, n normalizer, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error) {
	profile, err := n.Normalize(attrs)
	if err != nil {
		return nil, err
	}

	var (
		bundle  *domain.TokenBundle
		created bool
	)
	err = l.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		identity, err := uow.Identities().FindByProviderSubject(ctx, profile.Provider, profile.SubjectID)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrNotFound):
			if identity, err = l.register(ctx, uow, profile); err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		bundle, err = l.issuer.IssueAndPersist(ctx, uow, identity)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.LogInfo(ctx, "Social login completed",
		slog.String("provider", string(profile.Provider)),
		slog.String("email", profile.Email),
		slog.Bool("new_account", created),
		slog.String("client_ip", lc.ClientIP),
		slog.String("user_agent", lc.UserAgent))
	return bundle, nil
}

// register creates the principal, its profile and the social identity.
func (l *socialLogin) register(ctx context.Context, uow portsrepo.UnitOfWork, profile domain.SocialProfile) (*domain.Identity, error) {
	taken, err := uow.Principals().ExistsPrincipalByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail.WithDetail("email belongs to another account")
	}

	principal, principalProfile := domain.NewPrincipal(profile.Email, profile.Nickname)
	principalProfile.AvatarURL = profile.AvatarURL
	saved, err := uow.Principals().CreatePrincipal(ctx, principal, principalProfile)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, err
	}

	identity, err := uow.Identities().CreateIdentity(ctx,
		domain.NewSocialIdentity(saved.ID, profile.Provider, profile.Email, profile.SubjectID))
	if err != nil {
		return nil, fmt.Errorf("create %s identity: %w", profile.Provider.Lower(), err)
	}
	return identity, nil
}

// GoogleLoginProcessor handles OpenID Connect claims from Google.
type GoogleLoginProcessor struct {
	socialLogin
}

func (p *GoogleLoginProcessor) Provider() domain.Provider { return domain.ProviderGoogle }

func (p *GoogleLoginProcessor) Normalize(attrs map[string]any) (domain.SocialProfile, error) {
	sub := stringAttr(attrs, "sub")
	if sub == "" {
		return domain.SocialProfile{}, apperrors.ErrOAuthResponseMalformed.WithDetail("google: sub is missing")
	}
	return domain.SocialProfile{
		Provider:  domain.ProviderGoogle,
		SubjectID: sub,
		Email:     emailOrPlaceholder(stringAttr(attrs, "email"), domain.ProviderGoogle, sub),
		Nickname:  firstNonEmpty(stringAttr(attrs, "name"), defaultGoogleNickname),
		AvatarURL: optionalAttr(attrs, "picture"),
	}, nil
}

func (p *GoogleLoginProcessor) Process(ctx context.Context, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error) {
	return p.login(ctx, p, attrs, lc)
}

// KakaoLoginProcessor handles the Kakao /v2/user/me payload. Email and
// profile live under kakao_account and may be withheld by the user.
type KakaoLoginProcessor struct {
	socialLogin
}

func (p *KakaoLoginProcessor) Provider() domain.Provider { return domain.ProviderKakao }

func (p *KakaoLoginProcessor) Normalize(attrs map[string]any) (domain.SocialProfile, error) {
	id := stringAttr(attrs, "id")
	if id == "" {
		return domain.SocialProfile{}, apperrors.ErrOAuthResponseMalformed.WithDetail("kakao: id is missing")
	}

	account := mapAttr(attrs, "kakao_account")
	profile := mapAttr(account, "profile")
	return domain.SocialProfile{
		Provider:  domain.ProviderKakao,
		SubjectID: id,
		Email:     emailOrPlaceholder(stringAttr(account, "email"), domain.ProviderKakao, id),
		Nickname:  firstNonEmpty(stringAttr(profile, "nickname"), defaultKakaoNickname),
		AvatarURL: optionalAttr(profile, "profile_image_url"),
	}, nil
}

func (p *KakaoLoginProcessor) Process(ctx context.Context, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error) {
	return p.login(ctx, p, attrs, lc)
}

// NaverLoginProcessor handles the Naver /v1/nid/me payload, whose fields are
// wrapped in a "response" object.
type NaverLoginProcessor struct {
	socialLogin
}

func (p *NaverLoginProcessor) Provider() domain.Provider { return domain.ProviderNaver }

func (p *NaverLoginProcessor) Normalize(attrs map[string]any) (domain.SocialProfile, error) {
	response := mapAttr(attrs, "response")
	if response == nil {
		return domain.SocialProfile{}, apperrors.ErrOAuthResponseMalformed.WithDetail("naver: response is missing")
	}
	id := stringAttr(response, "id")
	if id == "" {
		return domain.SocialProfile{}, apperrors.ErrOAuthResponseMalformed.WithDetail("naver: id is missing")
	}
	return domain.SocialProfile{
		Provider:  domain.ProviderNaver,
		SubjectID: id,
		Email:     emailOrPlaceholder(stringAttr(response, "email"), domain.ProviderNaver, id),
		Nickname:  firstNonEmpty(stringAttr(response, "nickname"), stringAttr(response, "name"), defaultNaverNickname),
		AvatarURL: optionalAttr(response, "profile_image"),
	}, nil
}

func (p *NaverLoginProcessor) Process(ctx context.Context, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error) {
	return p.login(ctx, p, attrs, lc)
}

// NewSocialLoginProcessors creates one processor per supported provider.
func NewSocialLoginProcessors(repos portsrepo.RepositoryProvider, issuer portssvc.SessionIssuerSvc) []portssvc.SocialLoginProcessor {
	base := socialLogin{repos: repos, issuer: issuer}
	return []portssvc.SocialLoginProcessor{
		&GoogleLoginProcessor{socialLogin: base},
		&KakaoLoginProcessor{socialLogin: base},
		&NaverLoginProcessor{socialLogin: base},
	}
}

// providerRegistry maps provider tags to processors. It is built once and
// only read afterwards.
type providerRegistry struct {
	processors map[domain.Provider]portssvc.SocialLoginProcessor
	order      []domain.Provider
}

// NewProviderRegistry indexes processors by their provider. Registering a
// provider twice is a programming error.
func NewProviderRegistry(processors ...portssvc.SocialLoginProcessor) (portssvc.ProviderRegistrySvc, error) {
	r := &providerRegistry{processors: make(map[domain.Provider]portssvc.SocialLoginProcessor, len(processors))}
	for _, p := range processors {
		provider := p.Provider()
		if !provider.IsSocial() {
			return nil, fmt.Errorf("provider %q cannot be registered for social login", provider)
		}
		if _, dup := r.processors[provider]; dup {
			return nil, fmt.Errorf("provider %q registered twice", provider)
		}
		r.processors[provider] = p
		r.order = append(r.order, provider)
	}
	return r, nil
}

func (r *providerRegistry) Lookup(tag string) (portssvc.SocialLoginProcessor, error) {
	provider, ok := domain.ParseProvider(tag)
	if !ok {
		return nil, apperrors.ErrUnsupportedProvider.WithDetail(fmt.Sprintf("unknown provider %q", tag))
	}
	p, found := r.processors[provider]
	if !found {
		return nil, apperrors.ErrUnsupportedProvider.WithDetail(fmt.Sprintf("no processor for %q", tag))
	}
	return p, nil
}

func (r *providerRegistry) Providers() []domain.Provider {
	return append([]domain.Provider(nil), r.order...)
}

// stringAttr reads key as a string. Numeric ids (Kakao) are formatted
// without exponent or fraction.
func stringAttr(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func optionalAttr(m map[string]any, key string) *string {
	if v := stringAttr(m, key); v != "" {
		return &v
	}
	return nil
}

func mapAttr(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func emailOrPlaceholder(email string, provider domain.Provider, subjectID string) string {
	if email != "" {
		return email
	}
	p := provider.Lower()
	return p + "_" + subjectID + "@" + p + ".com"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
