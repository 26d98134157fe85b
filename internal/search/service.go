package search

import (
	"context"
	"strings"

	"fishtopia_backend/internal/common"

	"go.uber.org/zap"
)

// UnknownOwnerName labels listing hits whose owner profile cannot be found.
const UnknownOwnerName = "Unknown User"

// OwnerNameResolver looks up a user's display name.
type OwnerNameResolver interface {
	OwnerName(ctx context.Context, userID string) (string, bool)
}

// ListingHit is a listings search hit with its owner's display name.
type ListingHit struct {
	Hit
	OwnerName string `json:"ownerName"`
}

// Service runs free-text queries against the search indexes.
type Service interface {
	SearchListings(ctx context.Context, q Query) ([]ListingHit, int64, error)
	SearchUsers(ctx context.Context, q Query) ([]Hit, int64, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	index  Index
	owners OwnerNameResolver
	logger *zap.Logger
}

// NewService creates a search service. owners may be nil.
func NewService(index Index, owners OwnerNameResolver, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{index: index, owners: owners, logger: logger.Named("search_service")}
}

func (s *ServiceImplementation) SearchListings(ctx context.Context, q Query) ([]ListingHit, int64, error) {
	res, err := s.index.Search(ctx, ListingsIndex, q)
	if err != nil {
		s.logger.Error("Listing search failed", zap.String("query", q.Text), zap.Error(err))
		return nil, 0, common.ErrServiceUnavailable.WithDetails("Search is temporarily unavailable.")
	}

	hits := make([]ListingHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := ListingHit{Hit: h, OwnerName: UnknownOwnerName}
		if userRef, _ := h.Record["userRef"].(string); userRef != "" && s.owners != nil {
			if name, ok := s.owners.OwnerName(ctx, userRef); ok && strings.TrimSpace(name) != "" {
				hit.OwnerName = name
			}
		}
		hits = append(hits, hit)
	}
	return hits, res.Total, nil
}

func (s *ServiceImplementation) SearchUsers(ctx context.Context, q Query) ([]Hit, int64, error) {
	res, err := s.index.Search(ctx, UsersIndex, q)
	if err != nil {
		s.logger.Error("User search failed", zap.String("query", q.Text), zap.Error(err))
		return nil, 0, common.ErrServiceUnavailable.WithDetails("Search is temporarily unavailable.")
	}
	return res.Hits, res.Total, nil
}
