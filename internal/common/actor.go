package common

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// ActorContextKey stores the *Actor resolved by the auth middleware.
	ActorContextKey = "actor"
)

// Actor is the identity performing an operation. It is resolved once per
// request from the identity provider and passed explicitly to every service
// call that needs to know who is acting.
type Actor struct {
	UserID      string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Is reports whether the actor is the user with the given id.
func (a *Actor) Is(userID string) bool {
	return a != nil && a.UserID != "" && a.UserID == userID
}

// ID returns the actor's user id, or "" for an anonymous viewer.
func (a *Actor) ID() string {
	if a == nil {
		return ""
	}
	return a.UserID
}

// GetTokenFromContext retrieves the bearer token from the Authorization header.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetActorFromContext returns the authenticated actor, or nil for anonymous requests.
func GetActorFromContext(c *gin.Context) *Actor {
	val, exists := c.Get(ActorContextKey)
	if !exists {
		return nil
	}
	actor, ok := val.(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// RequireActor returns the authenticated actor or responds with 401.
func RequireActor(c *gin.Context) (*Actor, bool) {
	actor := GetActorFromContext(c)
	if actor == nil || actor.UserID == "" {
		RespondWithError(c, ErrUnauthorized.WithDetails("User identity not found in request."))
		return nil, false
	}
	return actor, true
}
