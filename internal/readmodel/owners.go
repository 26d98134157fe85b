package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/platform/cache"
	"fishtopia_backend/internal/user"

	"go.uber.org/zap"
)

// UserLookup loads user profiles.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Owner is the cached display snapshot of a user.
type Owner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Found     bool   `json:"found"`
}

// OwnerResolver resolves user ids to display snapshots through a cache.
// Entries are dropped when the user's profile changes.
type OwnerResolver struct {
	users         UserLookup
	cache         cache.Cache
	ttl           time.Duration
	defaultName   string
	defaultAvatar string
	logger        *zap.Logger
}

// NewOwnerResolver creates an OwnerResolver.
func NewOwnerResolver(users UserLookup, c cache.Cache, ttl time.Duration, defaultName, defaultAvatar string, logger *zap.Logger) *OwnerResolver {
	return &OwnerResolver{
		users:         users,
		cache:         c,
		ttl:           ttl,
		defaultName:   defaultName,
		defaultAvatar: defaultAvatar,
		logger:        logger.Named("owner_resolver"),
	}
}

func ownerKey(userID string) string {
	return "owner:" + userID
}

// Owner returns the snapshot for userID with defaults filled in. Lookup
// failures resolve to the defaults and are not cached.
func (r *OwnerResolver) Owner(ctx context.Context, userID string) Owner {
	if userID == "" {
		return r.withDefaults(Owner{})
	}

	if raw, ok, err := r.cache.Get(ctx, ownerKey(userID)); err != nil {
		r.logger.Warn("Owner cache read failed", zap.String("userID", userID), zap.Error(err))
	} else if ok {
		var o Owner
		if err := json.Unmarshal(raw, &o); err == nil {
			return r.withDefaults(o)
		}
	}

	o := Owner{ID: userID}
	u, err := r.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		o.Name, o.AvatarURL, o.Found = u.Name, u.AvatarURL, true
	case errors.Is(err, common.ErrNotFound):
	default:
		r.logger.Warn("Owner lookup failed", zap.String("userID", userID), zap.Error(err))
		return r.withDefaults(o)
	}

	if raw, err := json.Marshal(o); err == nil {
		if err := r.cache.Set(ctx, ownerKey(userID), raw, r.ttl); err != nil {
			r.logger.Warn("Owner cache write failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return r.withDefaults(o)
}

func (r *OwnerResolver) withDefaults(o Owner) Owner {
	if o.Name == "" {
		o.Name = r.defaultName
	}
	if o.AvatarURL == "" {
		o.AvatarURL = r.defaultAvatar
	}
	return o
}

// OwnerName returns the user's display name and whether the user exists.
func (r *OwnerResolver) OwnerName(ctx context.Context, userID string) (string, bool) {
	o := r.Owner(ctx, userID)
	return o.Name, o.Found
}

// Invalidate drops the cached snapshot of userID.
func (r *OwnerResolver) Invalidate(ctx context.Context, userID string) error {
	return r.cache.Delete(ctx, ownerKey(userID))
}

// RegisterInvalidation drops cached snapshots whenever a user document changes.
func (r *OwnerResolver) RegisterInvalidation(sub events.Subscriber) error {
	return sub.Broadcast(events.CollectionUsers, func(ctx context.Context, ev events.ChangeEvent) error {
		return r.Invalidate(ctx, ev.DocumentID)
	})
}
