package middleware

import (
	"field-report/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InjectUser loads the session user into the context as "CurrentUser".
// Sessions whose user no longer exists are cleared.
func InjectUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil {
				c.Set("CurrentUser", user)
			} else {
				sess.Clear()
				_ = sess.Save()
			}
		}

		c.Next()
	}
}
