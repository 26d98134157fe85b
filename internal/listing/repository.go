// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fishtopia_backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for listing data operations.
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]Listing, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Listing, *common.Pagination, error)
	List(ctx context.Context, offset, limit int) ([]Listing, error)
	// ToggleLike adds userID to the listing's likes or removes it, keeping
	// the count and the set in step. It returns whether the user now likes
	// the listing and the new count.
	ToggleLike(ctx context.Context, listingID, userID string) (bool, int, error)
}

var newestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM listing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// editableColumns are written by Update. likes is only changed by ToggleLike.
var editableColumns = []string{
	"title", "name", "country", "risk", "length", "weight", "description",
	"img_urls", "latitude", "longitude", "geolocation_enabled",
}

// Create inserts a new listing.
func (r *gormRepository) Create(ctx context.Context, listing *Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("A listing with this ID already exists.")
		}
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// FindByID retrieves a listing by its ID together with its likes.
func (r *gormRepository) FindByID(ctx context.Context, id string) (*Listing, error) {
	var listing Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, fmt.Errorf("failed to find listing %s: %w", id, err)
	}
	listings := []Listing{listing}
	if err := loadLikedBy(r.db.WithContext(ctx), listings); err != nil {
		return nil, err
	}
	return &listings[0], nil
}

// Update writes the editable fields of an existing listing.
func (r *gormRepository) Update(ctx context.Context, listing *Listing) error {
	result := r.db.WithContext(ctx).
		Model(&Listing{ID: listing.ID}).
		Select(editableColumns).
		Updates(listing)
	if result.Error != nil {
		return fmt.Errorf("failed to update listing %s: %w", listing.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// Delete removes a listing and its likes.
func (r *gormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes of listing %s: %w", id, err)
		}
		result := tx.Where("id = ?", id).Delete(&Listing{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete listing %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil
	})
}

// ListRecent returns the newest listings.
func (r *gormRepository) ListRecent(ctx context.Context, limit int) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).Order(newestFirst).Order("id DESC").Limit(limit).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent listings: %w", err)
	}
	if err := loadLikedBy(r.db.WithContext(ctx), listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// ListByUser returns one page of a user's listings, newest first.
func (r *gormRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Listing, *common.Pagination, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Listing{}).Where("user_ref = ?", userID).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting listings for user %s failed: %w", userID, err)
	}
	pagination := common.NewPagination(total, page, pageSize)

	var listings []Listing
	err := r.db.WithContext(ctx).
		Where("user_ref = ?", userID).
		Order(newestFirst).
		Order("id DESC").
		Limit(pagination.PageSize).
		Offset(common.Offset(pagination.CurrentPage, pagination.PageSize)).
		Find(&listings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("fetching listings for user %s failed: %w", userID, err)
	}
	if err := loadLikedBy(r.db.WithContext(ctx), listings); err != nil {
		return nil, nil, err
	}
	return listings, pagination, nil
}

// List returns listings ordered by id, for batch jobs.
func (r *gormRepository) List(ctx context.Context, offset, limit int) ([]Listing, error) {
	var listings []Listing
	if err := r.db.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	if err := loadLikedBy(r.db.WithContext(ctx), listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *gormRepository) ToggleLike(ctx context.Context, listingID, userID string) (bool, int, error) {
	var liked bool
	var likes int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&Listing{}).Where("id = ?", listingID).Count(&exists).Error; err != nil {
			return fmt.Errorf("checking listing %s: %w", listingID, err)
		}
		if exists == 0 {
			return common.ErrNotFound.WithDetails("Listing not found.")
		}

		inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Like{ListingID: listingID, UserID: userID, Timestamp: time.Now().UTC()})
		if inserted.Error != nil {
			return fmt.Errorf("adding like: %w", inserted.Error)
		}

		delta := 1
		liked = true
		if inserted.RowsAffected == 0 {
			removed := tx.Where("listing_id = ? AND user_id = ?", listingID, userID).Delete(&Like{})
			if removed.Error != nil {
				return fmt.Errorf("removing like: %w", removed.Error)
			}
			liked = false
			delta = -int(removed.RowsAffected)
		}

		if delta != 0 {
			if err := tx.Model(&Listing{}).Where("id = ?", listingID).
				UpdateColumn("likes", gorm.Expr("likes + ?", delta)).Error; err != nil {
				return fmt.Errorf("updating like count: %w", err)
			}
		}

		return tx.Model(&Listing{}).Select("likes").Where("id = ?", listingID).Row().Scan(&likes)
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// loadLikedBy fills LikedBy for each listing in like order.
func loadLikedBy(db *gorm.DB, listings []Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
		listings[i].LikedBy = []string{}
	}

	var likes []Like
	if err := db.Where("listing_id IN ?", ids).Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).Order("user_id ASC").Find(&likes).Error; err != nil {
		return fmt.Errorf("loading likes: %w", err)
	}

	byListing := make(map[string][]string, len(listings))
	for _, l := range likes {
		byListing[l.ListingID] = append(byListing[l.ListingID], l.UserID)
	}
	for i := range listings {
		if users, ok := byListing[listings[i].ID]; ok {
			listings[i].LikedBy = users
		}
	}
	return nil
}
