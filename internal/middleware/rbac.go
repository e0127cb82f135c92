package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/response"
)

// RequirePermission checks that the admin JWT carries the permission, or the
// "*" wildcard.
func RequirePermission(permission model.Permission) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission checks that the admin JWT contains at least one of the specified permissions.
func RequireAnyPermission(perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if hasAny(claims.Permissions, perms) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}

func hasAny(granted []string, wanted []model.Permission) bool {
	for _, g := range granted {
		if g == string(model.PermissionAll) {
			return true
		}
		for _, w := range wanted {
			if g == string(w) {
				return true
			}
		}
	}
	return false
}
