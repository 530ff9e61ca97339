package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coach_server/server/common/transport/httpresp"
)

type tokenAuth interface {
	ParseUserID(token string) (string, error)
}

func AuthRequired(auth tokenAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrMissingBearerToken))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := auth.ParseUserID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidToken))
			return
		}
		c.Set("auth_access_token", token)
		c.Set("auth_user_id", userID)
		c.Next()
	}
}

// UserFromContext returns the authenticated user id set by AuthRequired.
func UserFromContext(c *gin.Context) (string, bool) {
	raw, ok := c.Get("auth_user_id")
	if !ok {
		return "", false
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
