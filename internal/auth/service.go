// Package auth turns identity provider ID tokens into request actors and
// handles signing out.
package auth

import (
	"context"
	"fmt"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// IDTokenLifetime is how long an ID token issued by the identity provider stays valid.
const IDTokenLifetime = time.Hour

// TokenVerifier verifies ID tokens and revokes sessions at the identity provider.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	// VerifyIDTokenAndCheckRevoked also asks the provider whether the
	// user's sessions were revoked after the token was issued.
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Service resolves actors from tokens and signs users out.
type Service interface {
	Authenticate(ctx context.Context, idToken string) (*common.Actor, error)
	SignOut(ctx context.Context, actor *common.Actor) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	verifier     TokenVerifier
	revoked      RevocationList
	checkRevoked bool
	now          func() time.Time
	logger       *zap.Logger
}

// NewService creates an auth service. With AUTH_CHECK_REVOKED set every
// token is also checked for revocation at the identity provider.
func NewService(verifier TokenVerifier, revoked RevocationList, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		verifier:     verifier,
		revoked:      revoked,
		checkRevoked: cfg.AuthCheckRevoked,
		now:          time.Now,
		logger:       logger.Named("auth_service"),
	}
}

func (s *ServiceImplementation) verify(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if s.checkRevoked {
		return s.verifier.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	}
	return s.verifier.VerifyIDToken(ctx, idToken)
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Authenticate verifies idToken and builds the actor from its claims.
func (s *ServiceImplementation) Authenticate(ctx context.Context, idToken string) (*common.Actor, error) {
	token, err := s.verify(ctx, idToken)
	if err != nil {
		if fbauth.IsIDTokenRevoked(err) {
			return nil, common.ErrUnauthorized.WithDetails("This session has been signed out.")
		}
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired token.")
	}

	revokedAt, ok, err := s.revoked.RevokedAt(ctx, token.UID)
	if err != nil {
		s.logger.Warn("Revocation lookup failed", zap.String("uid", token.UID), zap.Error(err))
	} else if ok && time.Unix(token.IssuedAt, 0).Before(revokedAt.Truncate(time.Second)) {
		return nil, common.ErrUnauthorized.WithDetails("This session has been signed out.")
	}

	return &common.Actor{
		UserID:      token.UID,
		DisplayName: claimString(token.Claims, "name"),
		Email:       claimString(token.Claims, "email"),
		PhotoURL:    claimString(token.Claims, "picture"),
	}, nil
}

// SignOut revokes the actor's refresh tokens and refuses ID tokens issued
// before now for the rest of their lifetime.
func (s *ServiceImplementation) SignOut(ctx context.Context, actor *common.Actor) error {
	if actor.ID() == "" {
		return common.ErrUnauthorized
	}
	if err := s.verifier.RevokeRefreshTokens(ctx, actor.UserID); err != nil {
		return common.ErrServiceUnavailable.WithDetails(fmt.Sprintf("Could not sign out: %v", err))
	}
	if err := s.revoked.Revoke(ctx, actor.UserID, s.now(), IDTokenLifetime); err != nil {
		s.logger.Error("Failed to record revocation", zap.String("uid", actor.UserID), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not sign out.")
	}
	s.logger.Info("User signed out", zap.String("uid", actor.UserID))
	return nil
}
