package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/notification"

	"go.uber.org/zap"
)

// ListingLookup resolves the listing a comment belongs to.
type ListingLookup interface {
	GetListing(ctx context.Context, id string) (*listing.Listing, error)
}

// Notifier writes inbox notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message string, opts notification.NotifyOptions) (*notification.Notification, error)
}

// Service defines comment and reply operations.
type Service interface {
	AddComment(ctx context.Context, actor *common.Actor, listingID, text string) (*Comment, error)
	UpdateComment(ctx context.Context, actor *common.Actor, id, text string) (*Comment, error)
	DeleteComment(ctx context.Context, actor *common.Actor, id string) error
	AddReply(ctx context.Context, actor *common.Actor, commentID, text string) (*Reply, error)
	DeleteReply(ctx context.Context, actor *common.Actor, commentID, replyID string) error
	ListForListing(ctx context.Context, listingID string) ([]Comment, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Comment, *common.Pagination, error)
	CountForListing(ctx context.Context, listingID string) (int64, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo     Repository
	listings ListingLookup
	notifier Notifier
	cfg      *config.Config
	logger   *zap.Logger
}

// NewService creates a comment service.
func NewService(repo Repository, listings ListingLookup, notifier Notifier, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		listings: listings,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("comment_service"),
	}
}

// author returns the name and avatar stored with a new comment or reply,
// falling back to the configured defaults.
func (s *ServiceImplementation) author(actor *common.Actor) (string, string) {
	name, avatar := strings.TrimSpace(actor.DisplayName), actor.PhotoURL
	if name == "" {
		name = s.cfg.DefaultOwnerName
	}
	if avatar == "" {
		avatar = s.cfg.DefaultAvatarURL
	}
	return name, avatar
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.NewValidationAPIError(map[string]string{"text": "The text field is required."})
	}
	return text, nil
}

func internalError(msg string, err error) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	return common.ErrInternalServer.WithDetails(msg)
}

// AddComment stores the comment and, when the commenter is not the listing
// owner, notifies the owner. Notification failures are only logged.
func (s *ServiceImplementation) AddComment(ctx context.Context, actor *common.Actor, listingID, text string) (*Comment, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}

	target, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	name, avatar := s.author(actor)
	c := &Comment{
		ID:         common.NewID(),
		ListingRef: target.ID,
		UserID:     actor.UserID,
		FullName:   name,
		AvatarURL:  avatar,
		Text:       text,
		Timestamp:  time.Now().UTC(),
		Replies:    map[string]Reply{},
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create comment", zap.String("listingID", listingID), zap.Error(err))
		return nil, internalError("Could not add comment.", err)
	}
	s.logger.Info("Comment added", zap.String("commentID", c.ID), zap.String("listingID", target.ID))

	if target.UserRef != "" && !actor.Is(target.UserRef) && s.notifier != nil {
		name := actor.DisplayName
		if strings.TrimSpace(name) == "" {
			name = "Someone"
		}
		message := fmt.Sprintf("%s commented on your listing %s", name, target.Title)
		if _, err := s.notifier.Notify(ctx, target.UserRef, message, notification.NotifyOptions{
			Type:     notification.TypeComment,
			SenderID: actor.UserID,
			Href:     "/listing/" + target.ID,
		}); err != nil {
			s.logger.Error("Failed to send comment notification",
				zap.String("commentID", c.ID),
				zap.String("recipientID", target.UserRef),
				zap.Error(err),
			)
		}
	}
	return c, nil
}

// loadOwned returns the comment when actor wrote it.
func (s *ServiceImplementation) loadOwned(ctx context.Context, actor *common.Actor, id string) (*Comment, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError("Could not load comment.", err)
	}
	if !actor.Is(c.UserID) {
		s.logger.Warn("User attempted to modify a comment they did not write",
			zap.String("commentID", id),
			zap.String("authorID", c.UserID),
			zap.String("actorID", actor.UserID),
		)
		return nil, common.ErrForbidden.WithDetails("You can only modify your own comments.")
	}
	return c, nil
}

func (s *ServiceImplementation) UpdateComment(ctx context.Context, actor *common.Actor, id, text string) (*Comment, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}
	c, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateText(ctx, id, text); err != nil {
		s.logger.Error("Failed to update comment", zap.String("commentID", id), zap.Error(err))
		return nil, internalError("Could not update comment.", err)
	}
	c.Text = text
	return c, nil
}

func (s *ServiceImplementation) DeleteComment(ctx context.Context, actor *common.Actor, id string) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete comment", zap.String("commentID", id), zap.Error(err))
		return internalError("Could not delete comment.", err)
	}
	s.logger.Info("Comment deleted", zap.String("commentID", id))
	return nil
}

func (s *ServiceImplementation) AddReply(ctx context.Context, actor *common.Actor, commentID, text string) (*Reply, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}

	name, avatar := s.author(actor)
	reply := &Reply{
		ID:        common.NewID(),
		CommentID: commentID,
		UserID:    actor.UserID,
		FullName:  name,
		AvatarURL: avatar,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.AddReply(ctx, reply); err != nil {
		s.logger.Error("Failed to add reply", zap.String("commentID", commentID), zap.Error(err))
		return nil, internalError("Could not add reply.", err)
	}
	return reply, nil
}

// DeleteReply removes a reply. Only the reply's author may delete it.
func (s *ServiceImplementation) DeleteReply(ctx context.Context, actor *common.Actor, commentID, replyID string) error {
	if actor.ID() == "" {
		return common.ErrUnauthorized
	}
	c, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return internalError("Could not load comment.", err)
	}
	reply, ok := c.Replies[replyID]
	if !ok {
		return common.ErrNotFound.WithDetails("Reply not found.")
	}
	if !actor.Is(reply.UserID) {
		return common.ErrForbidden.WithDetails("You can only delete your own replies.")
	}
	if err := s.repo.DeleteReply(ctx, commentID, replyID); err != nil {
		s.logger.Error("Failed to delete reply", zap.String("replyID", replyID), zap.Error(err))
		return internalError("Could not delete reply.", err)
	}
	return nil
}

func (s *ServiceImplementation) ListForListing(ctx context.Context, listingID string) ([]Comment, error) {
	comments, err := s.repo.ListByListing(ctx, listingID)
	if err != nil {
		s.logger.Error("Failed to list comments", zap.String("listingID", listingID), zap.Error(err))
		return nil, internalError("Could not retrieve comments.", err)
	}
	return comments, nil
}

func (s *ServiceImplementation) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Comment, *common.Pagination, error) {
	comments, pagination, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list user comments", zap.String("userID", userID), zap.Error(err))
		return nil, nil, internalError("Could not retrieve comments.", err)
	}
	return comments, pagination, nil
}

func (s *ServiceImplementation) CountForListing(ctx context.Context, listingID string) (int64, error) {
	count, err := s.repo.CountByListing(ctx, listingID)
	if err != nil {
		s.logger.Error("Failed to count comments", zap.String("listingID", listingID), zap.Error(err))
		return 0, internalError("Could not count comments.", err)
	}
	return count, nil
}
