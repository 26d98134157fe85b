// File: internal/middleware/auth.go
package middleware

import (
	"context"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, idToken string) (*common.Actor, error)
}

// AuthMiddleware requires a valid bearer token and stores the actor in the context.
func AuthMiddleware(authenticator Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(common.AuthorizationHeader) == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		actor, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, err)
			return
		}

		c.Set(common.ActorContextKey, actor)
		logger.Debug("User authenticated successfully", zap.String("userID", actor.UserID))
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the actor when a valid token is sent and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(authenticator Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := common.GetTokenFromContext(c); token != "" {
			actor, err := authenticator.Authenticate(c.Request.Context(), token)
			if err != nil {
				logger.Debug("Ignoring invalid token on public route", zap.Error(err))
			} else {
				c.Set(common.ActorContextKey, actor)
			}
		}
		c.Next()
	}
}
