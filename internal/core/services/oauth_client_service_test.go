package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	"github.com/jobcrew/auth_backend/internal/core/services"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint and a userinfo endpoint.
type fakeProvider struct {
	server       *httptest.Server
	userInfo     string
	userStatus   int
	idToken      string
	exchangeFail bool

	mu     sync.Mutex
	bearer string
}

func (f *fakeProvider) seenBearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bearer
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{userStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if f.exchangeFail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		body := map[string]any{"access_token": "provider-access", "token_type": "bearer", "expires_in": 3600}
		if f.idToken != "" {
			body["id_token"] = f.idToken
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.bearer = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.WriteHeader(f.userStatus)
		_, _ = w.Write([]byte(f.userInfo))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeProvider) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   f.server.URL + "/authorize",
		TokenURL:  f.server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func oauthConfig() *config.Config {
	cfg := testConfig()
	cfg.Google = config.OAuthClient{ClientID: "google-id", ClientSecret: "google-secret", RedirectURL: "http://localhost:8080/login/oauth2/code/google"}
	cfg.Kakao = config.OAuthClient{ClientID: "kakao-id", ClientSecret: "kakao-secret", RedirectURL: "http://localhost:8080/login/oauth2/code/kakao"}
	return cfg
}

func TestOAuthClient_EnabledOnlyForConfiguredProviders(t *testing.T) {
	svc := services.NewOAuthClientService(oauthConfig())

	assert.True(t, svc.Enabled(domain.ProviderGoogle))
	assert.True(t, svc.Enabled(domain.ProviderKakao))
	assert.False(t, svc.Enabled(domain.ProviderNaver))

	_, err := svc.AuthCodeURL(domain.ProviderNaver, "state")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedProvider)

	_, err = svc.FetchAttributes(context.Background(), domain.ProviderNaver, "code")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedProvider)
}

func TestOAuthClient_AuthCodeURL(t *testing.T) {
	svc := services.NewOAuthClientService(oauthConfig())

	raw, err := svc.AuthCodeURL(domain.ProviderKakao, "xyz-state")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "kauth.kakao.com", u.Host)
	q := u.Query()
	assert.Equal(t, "xyz-state", q.Get("state"))
	assert.Equal(t, "kakao-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:8080/login/oauth2/code/kakao", q.Get("redirect_uri"))
}

func TestOAuthClient_FetchKakaoKeepsLargeIDExact(t *testing.T) {
	fake := newFakeProvider(t)
	fake.userInfo = `{"id": 3141592653589793, "kakao_account": {"email": "ryan@kakao.com"}}`
	svc := services.NewOAuthClientService(oauthConfig(),
		services.WithProviderEndpoint(domain.ProviderKakao, fake.endpoint(), fake.server.URL+"/userinfo"))

	attrs, err := svc.FetchAttributes(context.Background(), domain.ProviderKakao, "auth-code")
	require.NoError(t, err)

	assert.Equal(t, json.Number("3141592653589793"), attrs["id"])
	assert.Equal(t, "Bearer provider-access", fake.seenBearer())
}

func TestOAuthClient_UserInfoFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		exchange bool
	}{
		{name: "non 200 userinfo", status: http.StatusUnauthorized, body: `{"msg":"this access token does not exist"}`},
		{name: "userinfo not an object", status: http.StatusOK, body: `["id"]`},
		{name: "code exchange rejected", status: http.StatusOK, body: `{}`, exchange: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeProvider(t)
			fake.userStatus = tt.status
			fake.userInfo = tt.body
			fake.exchangeFail = tt.exchange
			svc := services.NewOAuthClientService(oauthConfig(),
				services.WithProviderEndpoint(domain.ProviderKakao, fake.endpoint(), fake.server.URL+"/userinfo"))

			_, err := svc.FetchAttributes(context.Background(), domain.ProviderKakao, "auth-code")
			assert.ErrorIs(t, err, apperrors.ErrOAuthResponseMalformed)
		})
	}
}

func TestOAuthClient_GoogleUsesValidatedIDToken(t *testing.T) {
	fake := newFakeProvider(t)
	fake.idToken = "header.payload.signature"
	fake.userInfo = `{"sub": "from-userinfo"}`

	var gotAudience string
	validator := func(_ context.Context, idToken, audience string) (map[string]any, error) {
		gotAudience = audience
		return map[string]any{"sub": "from-id-token", "email": "g@gmail.com"}, nil
	}
	svc := services.NewOAuthClientService(oauthConfig(),
		services.WithProviderEndpoint(domain.ProviderGoogle, fake.endpoint(), fake.server.URL+"/userinfo"),
		services.WithIDTokenValidator(validator))

	attrs, err := svc.FetchAttributes(context.Background(), domain.ProviderGoogle, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "from-id-token", attrs["sub"])
	assert.Equal(t, "google-id", gotAudience)
	assert.Empty(t, fake.seenBearer(), "userinfo must not be called")
}

func TestOAuthClient_GoogleFallsBackToUserInfo(t *testing.T) {
	fake := newFakeProvider(t)
	fake.idToken = "header.payload.signature"
	fake.userInfo = `{"sub": "from-userinfo", "email": "g@gmail.com"}`

	validator := func(context.Context, string, string) (map[string]any, error) {
		return nil, errors.New("idtoken: token expired")
	}
	svc := services.NewOAuthClientService(oauthConfig(),
		services.WithProviderEndpoint(domain.ProviderGoogle, fake.endpoint(), fake.server.URL+"/userinfo"),
		services.WithIDTokenValidator(validator))

	attrs, err := svc.FetchAttributes(context.Background(), domain.ProviderGoogle, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "from-userinfo", attrs["sub"])
}
