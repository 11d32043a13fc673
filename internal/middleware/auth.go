package middleware

import (
	"net/http"

	"field-report/internal/models"

	"github.com/gin-gonic/gin"
)

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("CurrentUser")
	if !ok {
		return nil
	}
	switch u := v.(type) {
	case models.User:
		return &u
	case *models.User:
		return u
	}
	return nil
}

// RequireAuth rejects requests without a user loaded by InjectUser.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "Unauthorized",
				"message": "login required",
			})
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "Unauthorized",
				"message": "login required",
			})
			return
		}
		if _, ok := roleSet[u.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "Forbidden",
				"message": "access denied",
			})
			return
		}
		c.Next()
	}
}
