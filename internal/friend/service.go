package friend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/notification"

	"go.uber.org/zap"
)

// Notifier writes inbox notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message string, opts notification.NotifyOptions) (*notification.Notification, error)
}

// Service defines the friend request workflow.
type Service interface {
	SendFriendRequest(ctx context.Context, actor *common.Actor, receiverID string) (*FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, actor *common.Actor, requestID string) (*FriendRequest, error)
	RejectFriendRequest(ctx context.Context, actor *common.Actor, requestID string) (*FriendRequest, error)
	RemoveFriend(ctx context.Context, actor *common.Actor, otherID string) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	HasPendingRequest(ctx context.Context, senderID, receiverID string) (bool, error)
	ListFriends(ctx context.Context, actor *common.Actor) ([]Friendship, error)
	ListIncomingRequests(ctx context.Context, actor *common.Actor) ([]FriendRequest, error)
	Status(ctx context.Context, actor *common.Actor, otherID string) (*StatusResponse, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a friend service.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		notifier: notifier,
		logger:   logger.Named("friend_service"),
	}
}

func displayName(actor *common.Actor) string {
	if name := strings.TrimSpace(actor.DisplayName); name != "" {
		return name
	}
	return "Someone"
}

func internalError(msg string, err error) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	return common.ErrInternalServer.WithDetails(msg)
}

func (s *ServiceImplementation) notify(ctx context.Context, recipientID, message string, opts notification.NotifyOptions) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, recipientID, message, opts); err != nil {
		s.logger.Error("Failed to send friend notification",
			zap.String("recipientID", recipientID),
			zap.String("type", string(opts.Type)),
			zap.Error(err),
		)
	}
}

// SendFriendRequest creates a pending request. Repeated requests between
// the same pair are not merged.
func (s *ServiceImplementation) SendFriendRequest(ctx context.Context, actor *common.Actor, receiverID string) (*FriendRequest, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, common.NewValidationAPIError(map[string]string{"receiverid": "The receiverid field is required."})
	}
	if actor.Is(receiverID) {
		return nil, common.ErrBadRequest.WithDetails("You cannot send a friend request to yourself.")
	}

	req := &FriendRequest{
		ID:         common.NewID(),
		SenderID:   actor.UserID,
		ReceiverID: receiverID,
		Status:     StatusPending,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		s.logger.Error("Failed to create friend request", zap.String("receiverID", receiverID), zap.Error(err))
		return nil, internalError("Could not send friend request.", err)
	}
	s.logger.Info("Friend request sent", zap.String("requestID", req.ID), zap.String("senderID", req.SenderID), zap.String("receiverID", receiverID))

	s.notify(ctx, receiverID, fmt.Sprintf("%s has sent you a friend request.", displayName(actor)), notification.NotifyOptions{
		Type:      notification.TypeFriendRequest,
		RequestID: req.ID,
		SenderID:  actor.UserID,
	})
	return req, nil
}

// loadForReceiver returns the request when actor is its receiver.
func (s *ServiceImplementation) loadForReceiver(ctx context.Context, actor *common.Actor, requestID string) (*FriendRequest, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, internalError("Could not load friend request.", err)
	}
	if !actor.Is(req.ReceiverID) {
		return nil, common.ErrForbidden.WithDetails("Only the receiver can respond to this friend request.")
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyResolved
	}
	return req, nil
}

func (s *ServiceImplementation) AcceptFriendRequest(ctx context.Context, actor *common.Actor, requestID string) (*FriendRequest, error) {
	if _, err := s.loadForReceiver(ctx, actor, requestID); err != nil {
		return nil, err
	}
	req, err := s.repo.ResolveRequest(ctx, requestID, StatusAccepted)
	if err != nil {
		s.logger.Warn("Failed to accept friend request", zap.String("requestID", requestID), zap.Error(err))
		return nil, internalError("Could not accept friend request.", err)
	}
	s.logger.Info("Friend request accepted", zap.String("requestID", requestID))

	s.notify(ctx, req.SenderID, fmt.Sprintf("%s accepted your friend request.", displayName(actor)), notification.NotifyOptions{
		Type:      notification.TypeFriendRequestAccepted,
		RequestID: req.ID,
		SenderID:  actor.UserID,
		Href:      "/profile/" + actor.UserID,
	})
	return req, nil
}

func (s *ServiceImplementation) RejectFriendRequest(ctx context.Context, actor *common.Actor, requestID string) (*FriendRequest, error) {
	if _, err := s.loadForReceiver(ctx, actor, requestID); err != nil {
		return nil, err
	}
	req, err := s.repo.ResolveRequest(ctx, requestID, StatusRejected)
	if err != nil {
		s.logger.Warn("Failed to reject friend request", zap.String("requestID", requestID), zap.Error(err))
		return nil, internalError("Could not reject friend request.", err)
	}
	s.logger.Info("Friend request rejected", zap.String("requestID", requestID))
	return req, nil
}

// RemoveFriend deletes both directions of the friendship. The request that
// created it keeps its accepted status.
func (s *ServiceImplementation) RemoveFriend(ctx context.Context, actor *common.Actor, otherID string) error {
	if actor.ID() == "" {
		return common.ErrUnauthorized
	}
	removed, err := s.repo.RemoveFriendship(ctx, actor.UserID, otherID)
	if err != nil {
		s.logger.Error("Failed to remove friend", zap.String("userID", actor.UserID), zap.String("otherID", otherID), zap.Error(err))
		return internalError("Could not remove friend.", err)
	}
	if removed == 0 {
		return common.ErrNotFound.WithDetails("You are not friends with this user.")
	}
	return nil
}

func (s *ServiceImplementation) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" {
		return false, nil
	}
	ok, err := s.repo.AreFriends(ctx, a, b)
	if err != nil {
		s.logger.Error("Failed to check friendship", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return false, internalError("Could not check friendship.", err)
	}
	return ok, nil
}

func (s *ServiceImplementation) HasPendingRequest(ctx context.Context, senderID, receiverID string) (bool, error) {
	if senderID == "" || receiverID == "" {
		return false, nil
	}
	ok, err := s.repo.HasPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		s.logger.Error("Failed to check pending request", zap.String("senderID", senderID), zap.String("receiverID", receiverID), zap.Error(err))
		return false, internalError("Could not check friend requests.", err)
	}
	return ok, nil
}

func (s *ServiceImplementation) ListFriends(ctx context.Context, actor *common.Actor) ([]Friendship, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	friends, err := s.repo.ListFriends(ctx, actor.UserID)
	if err != nil {
		return nil, internalError("Could not retrieve friends.", err)
	}
	return friends, nil
}

func (s *ServiceImplementation) ListIncomingRequests(ctx context.Context, actor *common.Actor) ([]FriendRequest, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	requests, err := s.repo.ListIncoming(ctx, actor.UserID)
	if err != nil {
		return nil, internalError("Could not retrieve friend requests.", err)
	}
	return requests, nil
}

// Status reports whether actor and otherID are friends and whether actor
// has a pending request out to otherID.
func (s *ServiceImplementation) Status(ctx context.Context, actor *common.Actor, otherID string) (*StatusResponse, error) {
	isFriend, err := s.AreFriends(ctx, actor.ID(), otherID)
	if err != nil {
		return nil, err
	}
	pending, err := s.HasPendingRequest(ctx, actor.ID(), otherID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{UserID: otherID, IsFriend: isFriend, HasPendingRequest: pending}, nil
}
