package friend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fishtopia_backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines friend request and friendship storage.
type Repository interface {
	CreateRequest(ctx context.Context, req *FriendRequest) error
	FindRequest(ctx context.Context, id string) (*FriendRequest, error)
	// ResolveRequest moves a pending request to status. Accepting also
	// writes both friendship directions in the same transaction.
	ResolveRequest(ctx context.Context, id string, status RequestStatus) (*FriendRequest, error)
	ListIncoming(ctx context.Context, receiverID string) ([]FriendRequest, error)
	HasPendingRequest(ctx context.Context, senderID, receiverID string) (bool, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]Friendship, error)
	RemoveFriendship(ctx context.Context, a, b string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM friend repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var newestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}

// ErrAlreadyResolved is returned when accepting or rejecting a request that
// is no longer pending.
var ErrAlreadyResolved = common.ErrConflict.WithDetails("This friend request has already been resolved.")

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func (r *gormRepository) CreateRequest(ctx context.Context, req *FriendRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

func findRequest(tx *gorm.DB, id string) (*FriendRequest, error) {
	var req FriendRequest
	if err := tx.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Friend request not found.")
		}
		return nil, fmt.Errorf("failed to find friend request %s: %w", id, err)
	}
	return &req, nil
}

func (r *gormRepository) FindRequest(ctx context.Context, id string) (*FriendRequest, error) {
	return findRequest(r.db.WithContext(ctx), id)
}

func (r *gormRepository) ResolveRequest(ctx context.Context, id string, status RequestStatus) (*FriendRequest, error) {
	var resolved *FriendRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&FriendRequest{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Update("status", status)
		if result.Error != nil {
			return fmt.Errorf("failed to update friend request %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			if _, err := findRequest(tx, id); err != nil {
				return err
			}
			return ErrAlreadyResolved
		}

		req, err := findRequest(tx, id)
		if err != nil {
			return err
		}
		resolved = req

		if status != StatusAccepted {
			return nil
		}
		now := time.Now().UTC()
		pair := []Friendship{
			{ID: common.NewID(), User1: req.SenderID, User2: req.ReceiverID, Timestamp: now},
			{ID: common.NewID(), User1: req.ReceiverID, User2: req.SenderID, Timestamp: now},
		}
		// An existing friendship from an earlier request is left as is.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pair).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return fmt.Errorf("failed to create friendship for request %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ListIncoming returns the pending requests addressed to receiverID, newest first.
func (r *gormRepository) ListIncoming(ctx context.Context, receiverID string) ([]FriendRequest, error) {
	var requests []FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, StatusPending).
		Order(newestFirst).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests for %s: %w", receiverID, err)
	}
	return requests, nil
}

func (r *gormRepository) HasPendingRequest(ctx context.Context, senderID, receiverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FriendRequest{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, StatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking pending request %s -> %s: %w", senderID, receiverID, err)
	}
	return count > 0, nil
}

func (r *gormRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Friendship{}).
		Where("user1 = ? AND user2 = ?", a, b).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking friendship %s -> %s: %w", a, b, err)
	}
	return count > 0, nil
}

func (r *gormRepository) ListFriends(ctx context.Context, userID string) ([]Friendship, error) {
	var friends []Friendship
	err := r.db.WithContext(ctx).Where("user1 = ?", userID).Order(newestFirst).Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of %s: %w", userID, err)
	}
	return friends, nil
}

// RemoveFriendship deletes both directions and returns how many rows went away.
func (r *gormRepository) RemoveFriendship(ctx context.Context, a, b string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("(user1 = ? AND user2 = ?) OR (user1 = ? AND user2 = ?)", a, b, b, a).Delete(&Friendship{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove friendship %s <-> %s: %w", a, b, result.Error)
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}
