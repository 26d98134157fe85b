package user

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/filestorage"

	"go.uber.org/zap"
)

// IdentityProvider manages accounts in the external identity service.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Service manages user profiles.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*User, error)
	// EnsureProfile returns the actor's profile, creating it from the
	// identity claims on first sign-in with an external provider.
	EnsureProfile(ctx context.Context, actor *common.Actor) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, actor *common.Actor, userID string, req UpdateProfileRequest) (*User, error)
	UploadAvatar(ctx context.Context, actor *common.Actor, fileHeader *multipart.FileHeader) (*User, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	identity  IdentityProvider
	storage   filestorage.Storage
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates a new user service.
func NewService(
	repo Repository,
	identity IdentityProvider,
	storage filestorage.Storage,
	publisher events.Publisher,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		identity:  identity,
		storage:   storage,
		publisher: publisher,
		logger:    logger.Named("user_service"),
	}
}

func (s *ServiceImplementation) publish(ctx context.Context, u *User) {
	events.Emit(ctx, s.publisher, s.logger, events.CollectionUsers, u.ID, u)
}

// SignUp creates the identity and then its profile document.
func (s *ServiceImplementation) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, common.ErrBadRequest.WithDetails("Name is required.")
	}

	uid, err := s.identity.CreateUser(ctx, req.Email, req.Password, name)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to create identity", zap.String("email", req.Email), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create account.")
	}

	profile := &User{
		ID:        uid,
		Name:      name,
		Email:     req.Email,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		// The identity exists; EnsureProfile repairs the missing profile on first sign-in.
		s.logger.Error("Failed to create profile for new identity", zap.String("uid", uid), zap.Error(err))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, common.ErrInternalServer.WithDetails("Could not create profile.")
	}

	s.logger.Info("User signed up", zap.String("uid", uid))
	s.publish(ctx, profile)
	return profile, nil
}

func (s *ServiceImplementation) EnsureProfile(ctx context.Context, actor *common.Actor) (*User, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}

	existing, err := s.repo.FindByID(ctx, actor.UserID)
	if err == nil {
		return existing, nil
	}
	if apiErr, ok := common.IsAPIError(err); !ok || apiErr.Code != common.ErrNotFound.Code {
		s.logger.Error("Failed to load profile", zap.String("uid", actor.UserID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load profile.")
	}

	profile := &User{
		ID:        actor.UserID,
		Name:      actor.DisplayName,
		Email:     actor.Email,
		AvatarURL: actor.PhotoURL,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		// Lost a race with a concurrent first request.
		if existing, findErr := s.repo.FindByID(ctx, actor.UserID); findErr == nil {
			return existing, nil
		}
		s.logger.Error("Failed to create profile from identity", zap.String("uid", actor.UserID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create profile.")
	}

	s.publish(ctx, profile)
	return profile, nil
}

func (s *ServiceImplementation) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to load user", zap.String("id", id), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load user.")
	}
	return u, nil
}

func (s *ServiceImplementation) UpdateProfile(ctx context.Context, actor *common.Actor, userID string, req UpdateProfileRequest) (*User, error) {
	if !actor.Is(userID) {
		s.logger.Warn("Profile edit by non-owner refused", zap.String("actor", actor.ID()), zap.String("userID", userID))
		return nil, common.ErrForbidden.WithDetails("You can only edit your own profile.")
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, common.ErrBadRequest.WithDetails("Name cannot be empty.")
		}
		u.Name = name
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update profile", zap.String("id", userID), zap.Error(err))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, common.ErrInternalServer.WithDetails("Could not update profile.")
	}

	s.syncIdentity(ctx, u)
	s.publish(ctx, u)
	return u, nil
}

// UploadAvatar stores the image under avatars/{userId} and points the profile at it.
func (s *ServiceImplementation) UploadAvatar(ctx context.Context, actor *common.Actor, fileHeader *multipart.FileHeader) (*User, error) {
	if actor.ID() == "" {
		return nil, common.ErrUnauthorized
	}
	u, err := s.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	url, err := filestorage.UploadFileHeader(ctx, s.storage, filestorage.AvatarKey(u.ID), fileHeader, nil)
	if err != nil {
		s.logger.Error("Avatar upload failed", zap.String("uid", u.ID), zap.String("code", filestorage.ErrorCode(err)), zap.Error(err))
		return nil, filestorage.ToAPIError(err)
	}

	u.AvatarURL = url
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to save avatar URL", zap.String("uid", u.ID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not update profile.")
	}

	s.syncIdentity(ctx, u)
	s.publish(ctx, u)
	return u, nil
}

func (s *ServiceImplementation) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := s.identity.PasswordResetLink(ctx, strings.TrimSpace(email))
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return "", err
		}
		s.logger.Error("Failed to generate password reset link", zap.Error(err))
		return "", common.ErrInternalServer.WithDetails("Could not generate password reset link.")
	}
	return link, nil
}

// syncIdentity copies name and avatar to the identity provider. Failures are logged only.
func (s *ServiceImplementation) syncIdentity(ctx context.Context, u *User) {
	if s.identity == nil {
		return
	}
	if err := s.identity.UpdateProfile(ctx, u.ID, u.Name, u.AvatarURL); err != nil {
		s.logger.Warn("Failed to sync profile to identity provider", zap.String("uid", u.ID), zap.Error(err))
	}
}
