package comment

import (
	"context"
	"errors"
	"fmt"

	"fishtopia_backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines comment and reply storage.
type Repository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	ListByListing(ctx context.Context, listingID string) ([]Comment, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Comment, *common.Pagination, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
	AddReply(ctx context.Context, reply *Reply) error
	DeleteReply(ctx context.Context, commentID, replyID string) error
	DeleteForListing(ctx context.Context, listingID string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM comment repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var (
	newestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}
	oldestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}
)

// withReplies preloads replies in insertion order.
func withReplies(db *gorm.DB) *gorm.DB {
	return db.Preload("ReplyList", func(db *gorm.DB) *gorm.DB {
		return db.Order(oldestFirst).Order("id ASC")
	})
}

func indexAll(comments []Comment) {
	for i := range comments {
		comments[i].indexReplies()
	}
}

// listingsTable is the listing collection comments refer to.
const listingsTable = "listings"

// Create inserts a comment if its listing exists. On postgres the listing
// row is share-locked until the insert commits, so a concurrent listing
// delete waits and its comment cleanup sees the new comment.
func (r *gormRepository) Create(ctx context.Context, comment *Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(listingsTable).Where("id = ?", comment.ListingRef).Limit(1)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "SHARE"})
		}
		var ids []string
		if err := q.Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to check listing %s: %w", comment.ListingRef, err)
		}
		if len(ids) == 0 {
			return common.ErrNotFound.WithDetails("Listing not found.")
		}
		return tx.Omit("ReplyList").Create(comment).Error
	})
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return err
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if comment.Replies == nil {
		comment.Replies = map[string]Reply{}
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := withReplies(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Comment not found.")
		}
		return nil, fmt.Errorf("failed to find comment %s: %w", id, err)
	}
	c.indexReplies()
	return &c, nil
}

func (r *gormRepository) UpdateText(ctx context.Context, id, text string) error {
	result := r.db.WithContext(ctx).Model(&Comment{}).Where("id = ?", id).Update("text", text)
	if result.Error != nil {
		return fmt.Errorf("failed to update comment %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Comment not found.")
	}
	return nil
}

// Delete removes a comment and its replies.
func (r *gormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&Reply{}).Error; err != nil {
			return fmt.Errorf("failed to delete replies of comment %s: %w", id, err)
		}
		result := tx.Where("id = ?", id).Delete(&Comment{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete comment %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Comment not found.")
		}
		return nil
	})
}

// ListByListing returns a listing's comments, newest first.
func (r *gormRepository) ListByListing(ctx context.Context, listingID string) ([]Comment, error) {
	var comments []Comment
	err := withReplies(r.db.WithContext(ctx)).
		Where("listing_ref = ?", listingID).
		Order(newestFirst).
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of listing %s: %w", listingID, err)
	}
	indexAll(comments)
	return comments, nil
}

// ListByUser returns one page of a user's comments, newest first.
func (r *gormRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Comment, *common.Pagination, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Comment{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting comments for user %s failed: %w", userID, err)
	}
	pagination := common.NewPagination(total, page, pageSize)

	var comments []Comment
	err := withReplies(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Order("id DESC").
		Limit(pagination.PageSize).
		Offset(common.Offset(pagination.CurrentPage, pagination.PageSize)).
		Find(&comments).Error
	if err != nil {
		return nil, nil, fmt.Errorf("fetching comments for user %s failed: %w", userID, err)
	}
	indexAll(comments)
	return comments, pagination, nil
}

func (r *gormRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Comment{}).Where("listing_ref = ?", listingID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting comments of listing %s: %w", listingID, err)
	}
	return count, nil
}

// AddReply appends a reply to an existing comment.
func (r *gormRepository) AddReply(ctx context.Context, reply *Reply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&Comment{}).Where("id = ?", reply.CommentID).Count(&exists).Error; err != nil {
			return fmt.Errorf("checking comment %s: %w", reply.CommentID, err)
		}
		if exists == 0 {
			return common.ErrNotFound.WithDetails("Comment not found.")
		}
		if err := tx.Create(reply).Error; err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) DeleteReply(ctx context.Context, commentID, replyID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND comment_id = ?", replyID, commentID).Delete(&Reply{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reply %s: %w", replyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Reply not found.")
	}
	return nil
}

// DeleteForListing removes every comment of a listing with its replies.
func (r *gormRepository) DeleteForListing(ctx context.Context, listingID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&Comment{}).Select("id").Where("listing_ref = ?", listingID)
		if err := tx.Where("comment_id IN (?)", sub).Delete(&Reply{}).Error; err != nil {
			return fmt.Errorf("deleting replies of listing %s: %w", listingID, err)
		}
		if err := tx.Where("listing_ref = ?", listingID).Delete(&Comment{}).Error; err != nil {
			return fmt.Errorf("deleting comments of listing %s: %w", listingID, err)
		}
		return nil
	})
}
