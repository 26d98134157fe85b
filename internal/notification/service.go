package notification

import (
	"context"
	"strings"
	"time"

	"fishtopia_backend/internal/common"

	"go.uber.org/zap"
)

// Service is the inbox writer and reader.
type Service interface {
	// Notify appends one unread notification for recipientID. Every call
	// creates a new entry.
	Notify(ctx context.Context, recipientID, message string, opts NotifyOptions) (*Notification, error)
	MarkAsRead(ctx context.Context, actor *common.Actor, notificationID string) error
	MarkAllAsRead(ctx context.Context, actor *common.Actor) (int64, error)
	ListForUser(ctx context.Context, actor *common.Actor, page, pageSize int) ([]Notification, *common.Pagination, error)
	UnreadCount(ctx context.Context, actor *common.Actor) (int64, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a notification service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repo:   repo,
		logger: logger.Named("notification_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ServiceImplementation) Notify(ctx context.Context, recipientID, message string, opts NotifyOptions) (*Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, common.ErrBadRequest.WithDetails("Notification recipient is required.")
	}

	n := &Notification{
		ID:        common.NewID(),
		UserRef:   recipientID,
		Message:   message,
		IsRead:    false,
		Timestamp: s.now(),
		RequestID: optional(opts.RequestID),
		SenderID:  optional(opts.SenderID),
		Href:      optional(opts.Href),
	}
	if opts.Type != "" {
		t := opts.Type
		n.Type = &t
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification",
			zap.String("recipientID", recipientID),
			zap.String("type", string(opts.Type)),
			zap.Error(err),
		)
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}

	s.logger.Debug("Notification created", zap.String("id", n.ID), zap.String("recipientID", recipientID))
	return n, nil
}

func (s *ServiceImplementation) MarkAsRead(ctx context.Context, actor *common.Actor, notificationID string) error {
	if actor.ID() == "" {
		return common.ErrUnauthorized
	}
	if err := s.repo.MarkAsRead(ctx, notificationID, actor.ID()); err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return err
		}
		s.logger.Error("Failed to mark notification as read", zap.String("id", notificationID), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not update notification.")
	}
	return nil
}

func (s *ServiceImplementation) MarkAllAsRead(ctx context.Context, actor *common.Actor) (int64, error) {
	if actor.ID() == "" {
		return 0, common.ErrUnauthorized
	}
	count, err := s.repo.MarkAllAsRead(ctx, actor.ID())
	if err != nil {
		s.logger.Error("Failed to mark all notifications as read", zap.String("userID", actor.ID()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not update notifications.")
	}
	return count, nil
}

func (s *ServiceImplementation) ListForUser(ctx context.Context, actor *common.Actor, page, pageSize int) ([]Notification, *common.Pagination, error) {
	if actor.ID() == "" {
		return nil, nil, common.ErrUnauthorized
	}
	notifications, pagination, err := s.repo.GetByUserID(ctx, actor.ID(), page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.String("userID", actor.ID()), zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

func (s *ServiceImplementation) UnreadCount(ctx context.Context, actor *common.Actor) (int64, error) {
	if actor.ID() == "" {
		return 0, common.ErrUnauthorized
	}
	count, err := s.repo.CountUnread(ctx, actor.ID())
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.String("userID", actor.ID()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return count, nil
}
