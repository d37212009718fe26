package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
	"github.com/ho-ssain/HkToDoServer/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth reads the token cookie, validates it, and injects the user id into
// the Gin context.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.TokenCookieName)
		if err != nil || token == "" {
			resp := response.Error(c, http.StatusUnauthorized, "missing token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			resp := response.Error(c, http.StatusUnauthorized, "invalid token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}
