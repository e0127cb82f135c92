package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/response"
)

// SingleSubmission rejects a submission while the same admin already has one
// in flight, so a double click cannot create the course twice.
func SingleSubmission(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		ctx := c.Request.Context()
		key := config.CacheKey.SubmitLockKey(claims.UserID)

		ok, err := rdb.SetNX(ctx, key, c.FullPath(), ttl).Result()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to take submission lock")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if !ok {
			response.AbortFail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		defer rdb.Del(context.WithoutCancel(ctx), key)

		c.Next()
	}
}
