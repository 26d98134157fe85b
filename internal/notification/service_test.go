package notification

import (
	"context"
	"errors"
	"testing"

	"fishtopia_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, page, pageSize)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return notifications, pagination, args.Error(2)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, notificationID, userID string) (*Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Test Suite Setup
type NotificationServiceTestSuite struct {
	service       Service
	mockNotifRepo *MockNotificationRepository
	logger        *zap.Logger
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	ts := &NotificationServiceTestSuite{}
	ts.mockNotifRepo = new(MockNotificationRepository)
	ts.logger = zap.NewNop()

	ts.service = NewService(
		ts.mockNotifRepo,
		ts.logger,
	)
	return ts
}

func TestNotificationService_Notify_StoresOnlySuppliedOptionalFields(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Run(func(args mock.Arguments) {
		n := args.Get(1).(*Notification)
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "u1", n.UserRef)
		assert.Equal(t, "Bob commented on your listing Trout", n.Message)
		assert.False(t, n.IsRead)
		assert.False(t, n.Timestamp.IsZero())
		if assert.NotNil(t, n.Type) {
			assert.Equal(t, TypeComment, *n.Type)
		}
		if assert.NotNil(t, n.Href) {
			assert.Equal(t, "/listing/l1", *n.Href)
		}
		assert.Nil(t, n.RequestID)
		assert.Nil(t, n.SenderID)
	}).Return(nil)

	n, err := ts.service.Notify(ctx, "u1", "Bob commented on your listing Trout", NotifyOptions{Type: TypeComment, Href: "/listing/l1"})

	assert.NoError(t, err)
	assert.NotNil(t, n)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_Notify_NoDeduplication(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(nil).Twice()

	first, err := ts.service.Notify(ctx, "u1", "same", NotifyOptions{})
	assert.NoError(t, err)
	second, err := ts.service.Notify(ctx, "u1", "same", NotifyOptions{})
	assert.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Nil(t, first.Type)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_Notify_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(errors.New("repo error"))

	n, err := ts.service.Notify(ctx, "u1", "test", NotifyOptions{})

	assert.Error(t, err)
	assert.Nil(t, n)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_Notify_RequiresRecipient(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	_, err := ts.service.Notify(context.Background(), " ", "test", NotifyOptions{})

	assert.ErrorIs(t, err, common.ErrBadRequest)
	ts.mockNotifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotificationService_ListForUser_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	actor := &common.Actor{UserID: "u1"}
	page, pageSize := 1, 5

	mockNotifications := []Notification{
		{ID: "n1", UserRef: "u1", Message: "Notif 1"},
		{ID: "n2", UserRef: "u1", Message: "Notif 2"},
	}
	mockPagination := &common.Pagination{CurrentPage: page, PageSize: pageSize, TotalItems: 2, TotalPages: 1}

	ts.mockNotifRepo.On("GetByUserID", ctx, "u1", page, pageSize).Return(mockNotifications, mockPagination, nil)

	notifications, pagination, err := ts.service.ListForUser(ctx, actor, page, pageSize)

	assert.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, mockPagination, pagination)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_ListForUser_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("GetByUserID", ctx, "u1", 1, 5).Return(nil, nil, errors.New("repo error"))

	notifications, pagination, err := ts.service.ListForUser(ctx, &common.Actor{UserID: "u1"}, 1, 5)

	assert.Error(t, err)
	assert.Nil(t, notifications)
	assert.Nil(t, pagination)
	apiErr, ok := err.(*common.APIError)
	assert.True(t, ok)
	assert.Equal(t, common.ErrInternalServer.Code, apiErr.Code)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead_NotFound(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	expectedError := common.ErrNotFound.WithDetails("Notification not found or not owned by user.")

	ts.mockNotifRepo.On("MarkAsRead", ctx, "n1", "u2").Return(expectedError)

	err := ts.service.MarkAsRead(ctx, &common.Actor{UserID: "u2"}, "n1")

	apiErr, ok := err.(*common.APIError)
	assert.True(t, ok, "Error should be an APIError")
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead_Anonymous(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	err := ts.service.MarkAsRead(context.Background(), nil, "n1")

	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestNotificationService_MarkAllAsRead_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("MarkAllAsRead", ctx, "u1").Return(int64(5), nil)

	count, err := ts.service.MarkAllAsRead(ctx, &common.Actor{UserID: "u1"})

	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
	ts.mockNotifRepo.AssertExpectations(t)
}

func TestNotificationService_UnreadCount_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("CountUnread", ctx, "u1").Return(int64(0), errors.New("repo error"))

	count, err := ts.service.UnreadCount(ctx, &common.Actor{UserID: "u1"})

	assert.ErrorIs(t, err, common.ErrInternalServer)
	assert.Equal(t, int64(0), count)
}
