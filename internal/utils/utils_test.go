package utils_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := utils.HashPassword("password123!")
	require.NoError(t, err)

	assert.True(t, utils.CheckPasswordHash("password123!", hash))
	assert.False(t, utils.CheckPasswordHash("password123?", hash))
}

func TestIsAcceptablePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"password123!", true},
		{"admin123!", true},
		{"short1!", false},
		{"nodigits!!", false},
		{"nosymbol123", false},
		{"12345678!", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.IsAcceptablePassword(tt.password))
		})
	}
}

func TestGenerateSecureRandomString(t *testing.T) {
	a, err := utils.GenerateSecureRandomString(16)
	require.NoError(t, err)
	b, err := utils.GenerateSecureRandomString(16)
	require.NoError(t, err)

	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)

	_, err = utils.GenerateSecureRandomString(0)
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	c.Request.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	c.Request.Header.Set("User-Agent", "jobcrew-test")

	lc := utils.LoginContextFrom(c)
	assert.Equal(t, "203.0.113.7", lc.ClientIP)
	assert.Equal(t, "jobcrew-test", lc.UserAgent)
}

func TestPosthogWrapperWithoutClientIsNoop(t *testing.T) {
	var w *utils.PosthogClientWrapper
	assert.False(t, w.IsInitialized())
	assert.NotPanics(t, func() {
		w.Enqueue("1", "auth_login", nil)
		w.Close()
	})
}
