package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/platform/cache"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fbauth.Token), args.Error(1)
}

func (m *MockTokenVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fbauth.Token), args.Error(1)
}

func (m *MockTokenVerifier) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func newTestService() (*ServiceImplementation, *MockTokenVerifier) {
	verifier := new(MockTokenVerifier)
	revoked := NewCacheRevocationList(cache.NewMemoryCache(time.Hour))
	return NewService(verifier, revoked, &config.Config{}, zap.NewNop()), verifier
}

func TestAuthenticate_BuildsActorFromClaims(t *testing.T) {
	svc, verifier := newTestService()
	ctx := context.Background()
	verifier.On("VerifyIDToken", ctx, "tok").Return(&fbauth.Token{
		UID:      "u1",
		IssuedAt: time.Now().Unix(),
		Claims:   map[string]interface{}{"name": "Alice", "email": "alice@example.com", "picture": "http://img/a"},
	}, nil)

	actor, err := svc.Authenticate(ctx, "tok")

	require.NoError(t, err)
	assert.Equal(t, &common.Actor{UserID: "u1", DisplayName: "Alice", Email: "alice@example.com", PhotoURL: "http://img/a"}, actor)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	svc, verifier := newTestService()
	ctx := context.Background()
	verifier.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("signature mismatch"))

	_, err := svc.Authenticate(ctx, "bad")

	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSignOut_RefusesOlderTokens(t *testing.T) {
	svc, verifier := newTestService()
	ctx := context.Background()
	signOutAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return signOutAt }

	verifier.On("RevokeRefreshTokens", ctx, "u1").Return(nil)
	verifier.On("VerifyIDToken", ctx, "old").Return(&fbauth.Token{UID: "u1", IssuedAt: signOutAt.Add(-time.Minute).Unix()}, nil)
	verifier.On("VerifyIDToken", ctx, "new").Return(&fbauth.Token{UID: "u1", IssuedAt: signOutAt.Add(time.Minute).Unix()}, nil)

	require.NoError(t, svc.SignOut(ctx, &common.Actor{UserID: "u1"}))

	_, err := svc.Authenticate(ctx, "old")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	actor, err := svc.Authenticate(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
}

func TestSignOut_ProviderFailure(t *testing.T) {
	svc, verifier := newTestService()
	ctx := context.Background()
	verifier.On("RevokeRefreshTokens", ctx, "u1").Return(errors.New("unavailable"))

	err := svc.SignOut(ctx, &common.Actor{UserID: "u1"})

	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	_, revoked, _ := svc.revoked.RevokedAt(ctx, "u1")
	assert.False(t, revoked)
}

func TestSignOut_RevocationSharedThroughCache(t *testing.T) {
	shared := cache.NewMemoryCache(time.Hour)
	signOutAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	replicaA := NewService(new(MockTokenVerifier), NewCacheRevocationList(shared), &config.Config{}, zap.NewNop())
	replicaA.now = func() time.Time { return signOutAt }
	replicaA.verifier.(*MockTokenVerifier).On("RevokeRefreshTokens", ctx, "u1").Return(nil)
	require.NoError(t, replicaA.SignOut(ctx, &common.Actor{UserID: "u1"}))

	verifierB := new(MockTokenVerifier)
	verifierB.On("VerifyIDToken", ctx, "old").Return(&fbauth.Token{UID: "u1", IssuedAt: signOutAt.Add(-time.Minute).Unix()}, nil)
	replicaB := NewService(verifierB, NewCacheRevocationList(shared), &config.Config{}, zap.NewNop())

	_, err := replicaB.Authenticate(ctx, "old")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthenticate_ChecksRevocationAtProviderWhenConfigured(t *testing.T) {
	verifier := new(MockTokenVerifier)
	svc := NewService(verifier, NewCacheRevocationList(cache.NewMemoryCache(time.Hour)), &config.Config{AuthCheckRevoked: true}, zap.NewNop())
	ctx := context.Background()

	verifier.On("VerifyIDTokenAndCheckRevoked", ctx, "revoked").Return(nil, errors.New("id token has been revoked"))
	verifier.On("VerifyIDTokenAndCheckRevoked", ctx, "fresh").Return(&fbauth.Token{UID: "u1", IssuedAt: time.Now().Unix()}, nil)

	_, err := svc.Authenticate(ctx, "revoked")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	actor, err := svc.Authenticate(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
	verifier.AssertNotCalled(t, "VerifyIDToken", mock.Anything, mock.Anything)
}

func TestCacheRevocationList_RoundTrip(t *testing.T) {
	list := NewCacheRevocationList(cache.NewMemoryCache(time.Hour))
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)

	_, found, err := list.RevokedAt(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, list.Revoke(ctx, "u1", at, time.Hour))
	got, found, err := list.RevokedAt(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, at.Equal(got))

	require.NoError(t, list.Revoke(ctx, "u2", at, 0))
	_, found, _ = list.RevokedAt(ctx, "u2")
	assert.False(t, found, "a zero ttl records nothing")
}
