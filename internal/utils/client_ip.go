package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/core/domain"
)

// ClientIP returns the first X-Forwarded-For hop, falling back to gin's ClientIP.
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

// LoginContextFrom collects the request metadata recorded with a login.
func LoginContextFrom(c *gin.Context) domain.LoginContext {
	return domain.LoginContext{
		ClientIP:  ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}
