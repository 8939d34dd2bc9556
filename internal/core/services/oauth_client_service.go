package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// User-info endpoints of the supported providers.
const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	kakaoUserInfoURL  = "https://kapi.kakao.com/v2/user/me"
	naverUserInfoURL  = "https://openapi.naver.com/v1/nid/me"
)

// Kakao and Naver expect the client credentials in the token request body.
var (
	kakaoEndpoint = oauth2.Endpoint{
		AuthURL:   "https://kauth.kakao.com/oauth/authorize",
		TokenURL:  "https://kauth.kakao.com/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	naverEndpoint = oauth2.Endpoint{
		AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
		TokenURL:  "https://nid.naver.com/oauth2.0/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
)

// IDTokenValidator verifies a Google id_token for audience and returns its claims.
type IDTokenValidator func(ctx context.Context, idToken, audience string) (map[string]any, error)

func validateGoogleIDToken(ctx context.Context, idToken, audience string) (map[string]any, error) {
	payload, err := idtoken.Validate(ctx, idToken, audience)
	if err != nil {
		return nil, err
	}
	claims := make(map[string]any, len(payload.Claims)+1)
	for k, v := range payload.Claims {
		claims[k] = v
	}
	claims["sub"] = payload.Subject
	return claims, nil
}

type oauthProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// oauthClientService runs the authorization code flow for every configured provider.
type oauthClientService struct {
	BaseService
	providers       map[domain.Provider]*oauthProvider
	validateIDToken IDTokenValidator
}

// OAuthClientOption configures an oauthClientService.
type OAuthClientOption func(*oauthClientService)

// WithProviderEndpoint points provider at a different authorization server.
func WithProviderEndpoint(provider domain.Provider, endpoint oauth2.Endpoint, userInfoURL string) OAuthClientOption {
	return func(s *oauthClientService) {
		if p, ok := s.providers[provider]; ok {
			p.config.Endpoint = endpoint
			p.userInfoURL = userInfoURL
		}
	}
}

// WithIDTokenValidator replaces the Google id_token verifier.
func WithIDTokenValidator(v IDTokenValidator) OAuthClientOption {
	return func(s *oauthClientService) {
		s.validateIDToken = v
	}
}

// NewOAuthClientService registers every provider that has a client id and redirect URL in cfg.
func NewOAuthClientService(cfg *config.Config, opts ...OAuthClientOption) portssvc.OAuthClientSvc {
	s := &oauthClientService{
		providers:       make(map[domain.Provider]*oauthProvider),
		validateIDToken: validateGoogleIDToken,
	}
	s.register(domain.ProviderGoogle, cfg.Google, google.Endpoint, googleUserInfoURL, "openid", "email", "profile")
	s.register(domain.ProviderKakao, cfg.Kakao, kakaoEndpoint, kakaoUserInfoURL, "profile_nickname", "profile_image", "account_email")
	s.register(domain.ProviderNaver, cfg.Naver, naverEndpoint, naverUserInfoURL)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *oauthClientService) register(provider domain.Provider, client config.OAuthClient, endpoint oauth2.Endpoint, userInfoURL string, scopes ...string) {
	if !client.Enabled() {
		return
	}
	s.providers[provider] = &oauthProvider{
		config: &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  client.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

var _ portssvc.OAuthClientSvc = (*oauthClientService)(nil)

func (s *oauthClientService) Enabled(provider domain.Provider) bool {
	_, ok := s.providers[provider]
	return ok
}

func (s *oauthClientService) AuthCodeURL(provider domain.Provider, state string) (string, error) {
	p, err := s.lookup(provider)
	if err != nil {
		return "", err
	}
	return p.config.AuthCodeURL(state), nil
}

// FetchAttributes exchanges code and returns the raw user attributes in the
// shape the matching SocialLoginProcessor expects.
func (s *oauthClientService) FetchAttributes(ctx context.Context, provider domain.Provider, code string) (map[string]any, error) {
	p, err := s.lookup(provider)
	if err != nil {
		return nil, err
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.ErrOAuthResponseMalformed.WithDetail("code exchange failed").Wrap(err)
	}

	if provider == domain.ProviderGoogle {
		if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
			claims, err := s.validateIDToken(ctx, rawIDToken, p.config.ClientID)
			if err == nil {
				return claims, nil
			}
			s.LogWarn(ctx, "Google id_token rejected, falling back to userinfo", "error", err.Error())
		}
	}

	return s.fetchUserInfo(ctx, p, token)
}

func (s *oauthClientService) fetchUserInfo(ctx context.Context, p *oauthProvider, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, apperrors.ErrOAuthResponseMalformed.WithDetail("userinfo request failed").Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.ErrOAuthResponseMalformed.WithDetail("userinfo body unreadable").Wrap(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrOAuthResponseMalformed.WithDetail(fmt.Sprintf("userinfo returned %s", resp.Status))
	}

	// UseNumber keeps Kakao's 64-bit ids exact.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, apperrors.ErrOAuthResponseMalformed.WithDetail("userinfo is not a JSON object").Wrap(err)
	}
	return attrs, nil
}

func (s *oauthClientService) lookup(provider domain.Provider) (*oauthProvider, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, apperrors.ErrUnsupportedProvider.WithDetail(fmt.Sprintf("provider %q is not configured", provider.Lower()))
	}
	return p, nil
}
