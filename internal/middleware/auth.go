package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/locals/internal/models"
)

const UserKey = "user"

// TokenResolver finds the user owning an access token.
type TokenResolver interface {
	FindByToken(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware resolves the Authorization header to a user and stores it
// under UserKey. The header carries the raw access token; a "Bearer " prefix
// is accepted too.
func AuthMiddleware(users TokenResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("missing access token"))
			return
		}

		user, err := users.FindByToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				logger.Error("token lookup failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("invalid access token"))
			return
		}

		c.Set(UserKey, user)
		c.Set("user_id", user.ID.Hex())
		c.Next()
	}
}

// OwnerOnly rejects requests whose path parameter param is not the id of the
// authenticated user. It must run after AuthMiddleware.
func OwnerOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		if c.Param(param) != user.ID.Hex() {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse("access to another user's data is not allowed"))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
