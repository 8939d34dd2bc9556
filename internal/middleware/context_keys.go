package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// identityIDKey stores the authenticated identity id.
const identityIDKey = contextKey("identityID")

func setIdentityID(c *gin.Context, identityID int64) {
	c.Set(string(identityIDKey), identityID)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), identityIDKey, identityID))
}

// GetIdentityIDFromContext retrieves the authenticated identity id from the Gin context.
func GetIdentityIDFromContext(c *gin.Context) (int64, bool) {
	if v, exists := c.Get(string(identityIDKey)); exists {
		id, ok := v.(int64)
		return id, ok
	}
	// check in the request context as well
	id, ok := c.Request.Context().Value(identityIDKey).(int64)
	return id, ok
}
