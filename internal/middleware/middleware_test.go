package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/core/services"
	"github.com/jobcrew/auth_backend/internal/middleware"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventTracker struct {
	mock.Mock
}

func (m *MockEventTracker) Enqueue(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "middleware-test-secret-that-is-long-enough",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc.def", want: "abc.def", ok: true},
		{header: "bearer  abc", want: "abc", ok: true},
		{header: "Bearer ", ok: false},
		{header: "Basic abc", ok: false},
		{header: "abc", ok: false},
	}
	for _, tt := range tests {
		got, ok := middleware.BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestAccessTokenAuth(t *testing.T) {
	now := time.Now()
	issuer := services.NewTokenService(tokenConfig())
	past := services.NewTokenService(tokenConfig(), services.WithTokenClock(func() time.Time { return now.Add(-time.Hour) }))

	valid, _, err := issuer.IssueAccess(42)
	require.NoError(t, err)
	expired, _, err := past.IssueAccess(42)
	require.NoError(t, err)
	refresh, _, err := issuer.IssueRefresh(7)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", middleware.AccessTokenAuth(issuer), func(c *gin.Context) {
		id, ok := middleware.GetIdentityIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"identityId": id})
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: `{"identityId":42}`},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized, body: `"code":"A002"`},
		{name: "refresh token", header: "Bearer " + refresh, status: http.StatusUnauthorized, body: `"code":"A010"`},
		{name: "missing", header: "", status: http.StatusUnauthorized, body: `"code":"A012"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter, err := middleware.NewMemoryLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/auth/login", middleware.RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Contains(t, w.Body.String(), `"code":"C003"`)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	_, err = middleware.NewMemoryLimiter("five-per-minute")
	assert.Error(t, err)
}

func TestPosthogMiddleware_TracksAuthenticatedSuccess(t *testing.T) {
	issuer := services.NewTokenService(tokenConfig())
	access, _, err := issuer.IssueAccess(42)
	require.NoError(t, err)

	tracker := new(MockEventTracker)
	tracker.On("Enqueue", "42", "api_v1_me", mock.MatchedBy(func(p map[string]any) bool {
		return p["method"] == http.MethodGet && p["status_code"] == http.StatusOK
	})).Return().Once()

	r := gin.New()
	v1 := r.Group("/api/v1", middleware.AccessTokenAuth(issuer), middleware.PosthogMiddleware(tracker))
	v1.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	r.ServeHTTP(httptest.NewRecorder(), req)

	// Rejected requests are not tracked.
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	tracker.AssertExpectations(t)
}

func TestStructuredLoggingMiddleware_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	r.GET("/health", func(c *gin.Context) {
		assert.NotNil(t, middleware.GetLoggerFromCtx(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}
