package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"
)

// FirebaseService wraps the Firebase Admin SDK: ID token verification,
// account management and the Storage bucket.
type FirebaseService struct {
	app        *firebase.App
	authClient *auth.Client
	logger     *zap.Logger
}

// NewFirebaseService initializes the Admin SDK. Without a key file it uses
// application default credentials.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	var opts []option.ClientOption
	if cfg.FirebaseServiceAccountKeyPath != "" {
		opts = append(opts, option.WithCredentialsFile(filepath.Clean(cfg.FirebaseServiceAccountKeyPath)))
	} else {
		logger.Info("FIREBASE_SERVICE_ACCOUNT_KEY_PATH not set, using application default credentials")
	}

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" || cfg.FirebaseStorageBucket != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID, StorageBucket: cfg.FirebaseStorageBucket}
	}

	app, err := firebase.NewApp(context.Background(), conf, opts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{app: app, authClient: authClient, logger: logger.Named("firebase")}, nil
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}
	return token, nil
}

// VerifyIDTokenAndCheckRevoked verifies a Firebase ID token and fails when
// the user's sessions were revoked after it was issued. It costs a user
// lookup at Firebase on every call.
func (s *FirebaseService) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenRevoked(err) {
			// Returned as is so callers can classify it with auth.IsIDTokenRevoked.
			return nil, err
		}
		s.logger.Warn("Firebase ID token verification with revocation check failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}
	return token, nil
}

// CreateUser registers an email/password account and returns its uid.
func (s *FirebaseService) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := s.authClient.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", common.ErrConflict.WithDetails("An account with this email already exists.")
		}
		s.logger.Error("Failed to create Firebase user", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("creating firebase user: %w", err)
	}
	return record.UID, nil
}

// UpdateProfile sets the identity's display name and photo URL. Empty values are left unchanged.
func (s *FirebaseService) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error {
	params := &auth.UserToUpdate{}
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	if photoURL != "" {
		params = params.PhotoURL(photoURL)
	}
	if _, err := s.authClient.UpdateUser(ctx, uid, params); err != nil {
		if auth.IsUserNotFound(err) {
			return common.ErrNotFound.WithDetails("Account not found.")
		}
		return fmt.Errorf("updating firebase user %s: %w", uid, err)
	}
	return nil
}

// PasswordResetLink generates the password reset link for an email address.
func (s *FirebaseService) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := s.authClient.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) || auth.IsEmailNotFound(err) {
			return "", common.ErrNotFound.WithDetails("No account uses this email address.")
		}
		return "", fmt.Errorf("generating password reset link: %w", err)
	}
	return link, nil
}

// RevokeRefreshTokens revokes all refresh tokens for a given user.
func (s *FirebaseService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// Bucket returns the configured default Storage bucket.
func (s *FirebaseService) Bucket(ctx context.Context) (*gcs.BucketHandle, error) {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("opening default storage bucket: %w", err)
	}
	return bucket, nil
}
