package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/calmchat/internal/auth"
	"github.com/suPer8Hu/calmchat/internal/common"
)

const SubjectKey = "subject"

// AuthRequired accepts a "Bearer <jwt>" header whose subject is the admin.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			return
		}
		sub, err := auth.ParseJWT([]byte(secret), strings.TrimSpace(token))
		if err != nil || sub != auth.AdminSubject {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			return
		}
		c.Set(SubjectKey, sub)
		c.Next()
	}
}
