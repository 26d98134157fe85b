package user

import (
	"context"
	"errors"
	"testing"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/events/eventstest"
	"fishtopia_backend/internal/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of the user.Repository interface.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

// MockIdentityProvider is a mock implementation of IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error {
	args := m.Called(ctx, uid, displayName, photoURL)
	return args.Error(0)
}

func (m *MockIdentityProvider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

type userServiceTestSuite struct {
	service   *ServiceImplementation
	repo      *MockUserRepository
	identity  *MockIdentityProvider
	recorder  *eventstest.Recorder
	uploadDir string
}

func setupUserServiceTestSuite(t *testing.T) *userServiceTestSuite {
	ts := &userServiceTestSuite{
		repo:      new(MockUserRepository),
		identity:  new(MockIdentityProvider),
		recorder:  &eventstest.Recorder{},
		uploadDir: t.TempDir(),
	}
	store, err := filestorage.NewLocalStorage(ts.uploadDir, "http://cdn.test", zap.NewNop())
	require.NoError(t, err)
	ts.service = NewService(ts.repo, ts.identity, store, ts.recorder, zap.NewNop())
	return ts
}

func TestUserService_SignUp_CreatesIdentityAndProfile(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.identity.On("CreateUser", ctx, "alice@example.com", "secret1", "Alice").Return("u1", nil)
	ts.repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	usr, err := ts.service.SignUp(ctx, SignUpRequest{Name: " Alice ", Email: "alice@example.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "u1", usr.ID)
	assert.Equal(t, "Alice", usr.Name)
	assert.False(t, usr.Timestamp.IsZero())

	ev, ok := ts.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, events.CollectionUsers, ev.Collection)
	assert.Equal(t, "u1", ev.DocumentID)
	assert.True(t, ev.Exists)
	assert.Equal(t, "Alice", ev.Document["name"])
	ts.identity.AssertExpectations(t)
	ts.repo.AssertExpectations(t)
}

func TestUserService_SignUp_IdentityConflict(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.identity.On("CreateUser", ctx, "alice@example.com", "secret1", "Alice").
		Return("", common.ErrConflict.WithDetails("An account with this email already exists."))

	_, err := ts.service.SignUp(ctx, SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"})

	assert.ErrorIs(t, err, common.ErrConflict)
	ts.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, ts.recorder.Events())
}

func TestUserService_EnsureProfile_CreatesFromClaims(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	actor := &common.Actor{UserID: "u2", DisplayName: "Bob", Email: "bob@example.com", PhotoURL: "http://img/bob.png"}

	ts.repo.On("FindByID", ctx, "u2").Return(nil, common.ErrNotFound).Once()
	ts.repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	usr, err := ts.service.EnsureProfile(ctx, actor)

	require.NoError(t, err)
	assert.Equal(t, "Bob", usr.Name)
	assert.Equal(t, "http://img/bob.png", usr.AvatarURL)
	assert.Len(t, ts.recorder.Events(), 1)
}

func TestUserService_EnsureProfile_Existing(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.repo.On("FindByID", ctx, "u2").Return(&User{ID: "u2", Name: "Bob"}, nil)

	usr, err := ts.service.EnsureProfile(ctx, &common.Actor{UserID: "u2"})

	require.NoError(t, err)
	assert.Equal(t, "Bob", usr.Name)
	ts.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, ts.recorder.Events())
}

func TestUserService_UpdateProfile_NonOwnerForbidden(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	name := "Mallory"

	_, err := ts.service.UpdateProfile(context.Background(), &common.Actor{UserID: "u2"}, "u1", UpdateProfileRequest{Name: &name})

	assert.ErrorIs(t, err, common.ErrForbidden)
	ts.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_UpdateProfile_Success(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	name := "Alice Cooper"

	ts.repo.On("FindByID", ctx, "u1").Return(&User{ID: "u1", Name: "Alice"}, nil)
	ts.repo.On("Update", ctx, mock.MatchedBy(func(u *User) bool { return u.Name == "Alice Cooper" })).Return(nil)
	ts.identity.On("UpdateProfile", ctx, "u1", "Alice Cooper", "").Return(errors.New("identity down"))

	usr, err := ts.service.UpdateProfile(ctx, &common.Actor{UserID: "u1"}, "u1", UpdateProfileRequest{Name: &name})

	require.NoError(t, err, "identity sync failures do not fail the edit")
	assert.Equal(t, "Alice Cooper", usr.Name)
	assert.Len(t, ts.recorder.Events(), 1)
	ts.repo.AssertExpectations(t)
}

func TestUserService_UpdateProfile_EmptyName(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()
	blank := "  "

	ts.repo.On("FindByID", ctx, "u1").Return(&User{ID: "u1", Name: "Alice"}, nil)

	_, err := ts.service.UpdateProfile(ctx, &common.Actor{UserID: "u1"}, "u1", UpdateProfileRequest{Name: &blank})

	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUserService_GetByID_RepositoryError(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.repo.On("FindByID", ctx, "u1").Return(nil, errors.New("connection reset"))

	_, err := ts.service.GetByID(ctx, "u1")

	assert.ErrorIs(t, err, common.ErrInternalServer)
}

func TestUserService_PasswordResetLink(t *testing.T) {
	ts := setupUserServiceTestSuite(t)
	ctx := context.Background()

	ts.identity.On("PasswordResetLink", ctx, "alice@example.com").Return("https://reset.link/x", nil)

	link, err := ts.service.PasswordResetLink(ctx, " alice@example.com ")

	require.NoError(t, err)
	assert.Equal(t, "https://reset.link/x", link)
}
