package listing

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/filestorage"

	"go.uber.org/zap"
)

// DependentCleaner removes documents that reference a deleted listing.
type DependentCleaner interface {
	DeleteForListing(ctx context.Context, listingID string) error
}

// Service defines listing writes and plain listing reads.
type Service interface {
	CreateListing(ctx context.Context, actor *common.Actor, req CreateListingRequest, images []*multipart.FileHeader) (*Listing, error)
	GetListing(ctx context.Context, id string) (*Listing, error)
	UpdateListing(ctx context.Context, actor *common.Actor, id string, req UpdateListingRequest, images []*multipart.FileHeader) (*Listing, error)
	DeleteListing(ctx context.Context, actor *common.Actor, id string) error
	ToggleLike(ctx context.Context, actor *common.Actor, id string) (*LikeResult, error)
	ListRecent(ctx context.Context, limit int) ([]Listing, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Listing, *common.Pagination, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	storage   filestorage.Storage
	publisher events.Publisher
	cleaner   DependentCleaner
	cfg       *config.Config
	logger    *zap.Logger
}

// NewService creates a new listing service. cleaner may be nil.
func NewService(
	repo Repository,
	storage filestorage.Storage,
	publisher events.Publisher,
	cleaner DependentCleaner,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		cleaner:   cleaner,
		cfg:       cfg,
		logger:    logger.Named("listing_service"),
	}
}

func (s *ServiceImplementation) publish(ctx context.Context, l *Listing) {
	events.Emit(ctx, s.publisher, s.logger, events.CollectionListings, l.ID, l)
}

func (s *ServiceImplementation) validateImages(images []*multipart.FileHeader) error {
	if len(images) > s.cfg.MaxListingImages {
		return common.NewValidationAPIError(map[string]string{
			"images": fmt.Sprintf("You can upload at most %d images.", s.cfg.MaxListingImages),
		})
	}
	for _, fh := range images {
		ct := fh.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "image/") {
			return common.NewValidationAPIError(map[string]string{
				"images": "Only image files can be uploaded.",
			})
		}
	}
	return nil
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return common.NewValidationAPIError(map[string]string{
			"location": "Latitude and longitude must be provided together.",
		})
	}
	return nil
}

// uploadImages stores images in order. On failure the already stored ones are removed.
func (s *ServiceImplementation) uploadImages(ctx context.Context, userID string, images []*multipart.FileHeader) (common.StringList, error) {
	urls := make(common.StringList, 0, len(images))
	keys := make([]string, 0, len(images))
	for _, fh := range images {
		key := filestorage.ImageKey(userID, fh.Filename)
		url, err := filestorage.UploadFileHeader(ctx, s.storage, key, fh, func(written int64) {
			s.logger.Debug("Upload progress", zap.String("key", key), zap.Int64("written", written), zap.Int64("size", fh.Size))
		})
		if err != nil {
			s.logger.Error("Image upload failed",
				zap.String("key", key),
				zap.String("code", filestorage.ErrorCode(err)),
				zap.Error(err),
			)
			for _, k := range keys {
				if delErr := s.storage.Delete(context.Background(), k); delErr != nil {
					s.logger.Warn("Failed to remove image after aborted upload", zap.String("key", k), zap.Error(delErr))
				}
			}
			return nil, filestorage.ToAPIError(err)
		}
		keys = append(keys, key)
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *ServiceImplementation) CreateListing(ctx context.Context, actor *common.Actor, req CreateListingRequest, images []*multipart.FileHeader) (*Listing, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, common.NewValidationAPIError(map[string]string{"form": "Title, name and description are required."})
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, actor.UserID, images)
	if err != nil {
		return nil, err
	}

	newListing := &Listing{
		ID:                 common.NewID(),
		UserRef:            actor.UserID,
		Title:              strings.TrimSpace(req.Title),
		Name:               strings.TrimSpace(req.Name),
		Country:            req.Country,
		Risk:               req.Risk,
		Length:             req.Length,
		Weight:             req.Weight,
		Description:        req.Description,
		ImgURLs:            urls,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		GeolocationEnabled: req.GeolocationEnabled,
		Likes:              0,
		LikedBy:            []string{},
		Timestamp:          time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, newListing); err != nil {
		s.logger.Error("Failed to create listing in repository", zap.Error(err))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, common.ErrInternalServer.WithDetails("Could not create listing.")
	}

	s.logger.Info("Listing created successfully", zap.String("listingID", newListing.ID), zap.String("userID", actor.UserID))
	s.publish(ctx, newListing)
	return newListing, nil
}

func (s *ServiceImplementation) GetListing(ctx context.Context, id string) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to load listing", zap.String("listingID", id), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load listing.")
	}
	return l, nil
}

// loadOwned returns the listing when actor owns it. Ownership is checked before any mutation.
func (s *ServiceImplementation) loadOwned(ctx context.Context, actor *common.Actor, id string) (*Listing, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	l, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(l.UserRef) {
		s.logger.Warn("User attempted to modify a listing they do not own",
			zap.String("listingID", id),
			zap.String("ownerID", l.UserRef),
			zap.String("actorID", actor.UserID),
		)
		return nil, common.ErrForbidden.WithDetails("You can only modify your own listings.")
	}
	return l, nil
}

func (s *ServiceImplementation) UpdateListing(ctx context.Context, actor *common.Actor, id string, req UpdateListingRequest, images []*multipart.FileHeader) (*Listing, error) {
	existing, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&existing.Title, req.Title)
	applyString(&existing.Name, req.Name)
	applyString(&existing.Country, req.Country)
	applyString(&existing.Risk, req.Risk)
	applyString(&existing.Length, req.Length)
	applyString(&existing.Weight, req.Weight)
	applyString(&existing.Description, req.Description)
	if req.Latitude != nil || req.Longitude != nil {
		if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
			return nil, err
		}
		existing.Latitude, existing.Longitude = req.Latitude, req.Longitude
	}
	if req.GeolocationEnabled != nil {
		existing.GeolocationEnabled = *req.GeolocationEnabled
	}
	if strings.TrimSpace(existing.Title) == "" || strings.TrimSpace(existing.Name) == "" || strings.TrimSpace(existing.Description) == "" {
		return nil, common.NewValidationAPIError(map[string]string{"form": "Title, name and description are required."})
	}

	if len(images) > 0 {
		urls, err := s.uploadImages(ctx, actor.UserID, images)
		if err != nil {
			return nil, err
		}
		existing.ImgURLs = urls
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to update listing in repository", zap.Error(err), zap.String("listingID", id))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, common.ErrInternalServer.WithDetails("Could not update listing.")
	}

	updated, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Listing updated successfully", zap.String("listingID", id))
	s.publish(ctx, updated)
	return updated, nil
}

func (s *ServiceImplementation) DeleteListing(ctx context.Context, actor *common.Actor, id string) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete listing", zap.Error(err), zap.String("listingID", id), zap.String("userID", actor.UserID))
		if _, ok := common.IsAPIError(err); ok {
			return err
		}
		return common.ErrInternalServer.WithDetails("Could not delete listing.")
	}
	s.logger.Info("Listing deleted successfully", zap.String("listingID", id), zap.String("userID", actor.UserID))

	if s.cleaner != nil {
		if err := s.cleaner.DeleteForListing(ctx, id); err != nil {
			s.logger.Error("Failed to delete comments of deleted listing", zap.String("listingID", id), zap.Error(err))
		}
	}
	events.EmitDeleted(ctx, s.publisher, s.logger, events.CollectionListings, id)
	return nil
}

func (s *ServiceImplementation) ToggleLike(ctx context.Context, actor *common.Actor, id string) (*LikeResult, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	liked, likes, err := s.repo.ToggleLike(ctx, id, actor.UserID)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to toggle like", zap.String("listingID", id), zap.String("userID", actor.UserID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not update like.")
	}

	if l, err := s.repo.FindByID(ctx, id); err == nil {
		s.publish(ctx, l)
	} else {
		s.logger.Warn("Could not reload listing after like toggle", zap.String("listingID", id), zap.Error(err))
	}
	return &LikeResult{ListingID: id, Liked: liked, Likes: likes}, nil
}

func (s *ServiceImplementation) ListRecent(ctx context.Context, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = s.cfg.RecentListingsLimit
	}
	if limit > common.MaxPageSize {
		limit = common.MaxPageSize
	}
	listings, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to get recent listings from repository", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve listings.")
	}
	return listings, nil
}

func (s *ServiceImplementation) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Listing, *common.Pagination, error) {
	listings, pagination, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to get user listings from repository", zap.String("userID", userID), zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve listings.")
	}
	return listings, pagination, nil
}
