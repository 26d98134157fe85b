//go:build wireinject
// +build wireinject

package main

import (
	"fishtopia_backend/internal/app"
	"fishtopia_backend/internal/auth"
	"fishtopia_backend/internal/comment"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/filestorage"
	"fishtopia_backend/internal/firebase"
	"fishtopia_backend/internal/friend"
	"fishtopia_backend/internal/jobs"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/middleware"
	"fishtopia_backend/internal/notification"
	"fishtopia_backend/internal/platform/cache"
	"fishtopia_backend/internal/platform/logger"
	"fishtopia_backend/internal/readmodel"
	"fishtopia_backend/internal/search"
	"fishtopia_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDatabase,
		provideEventBus,
		wire.Bind(new(events.Publisher), new(events.Bus)),
		wire.Bind(new(events.Subscriber), new(events.Bus)),
		cache.New,
		provideSearchIndex,

		// Firebase Admin SDK: identity, token verification and the storage bucket
		firebase.NewFirebaseService,
		wire.Bind(new(user.IdentityProvider), new(*firebase.FirebaseService)),
		wire.Bind(new(auth.TokenVerifier), new(*firebase.FirebaseService)),
		wire.Bind(new(filestorage.BucketProvider), new(*firebase.FirebaseService)),
		filestorage.New,

		// Auth
		provideRevocationList,
		auth.NewService,
		wire.Bind(new(auth.Service), new(*auth.ServiceImplementation)),
		wire.Bind(new(middleware.Authenticator), new(*auth.ServiceImplementation)),
		auth.NewHandler,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(readmodel.UserLookup), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		wire.Bind(new(comment.Notifier), new(notification.Service)),
		wire.Bind(new(friend.Notifier), new(notification.Service)),
		notification.NewHandler,

		// Listings and comments
		listing.NewGORMRepository,
		listing.NewService,
		wire.Bind(new(listing.Service), new(*listing.ServiceImplementation)),
		wire.Bind(new(comment.ListingLookup), new(*listing.ServiceImplementation)),
		wire.Bind(new(readmodel.ListingSource), new(*listing.ServiceImplementation)),
		listing.NewHandler,
		comment.NewGORMRepository,
		wire.Bind(new(listing.DependentCleaner), new(comment.Repository)),
		comment.NewService,
		wire.Bind(new(comment.Service), new(*comment.ServiceImplementation)),
		wire.Bind(new(readmodel.CommentSource), new(*comment.ServiceImplementation)),
		comment.NewHandler,

		// Friends
		friend.NewGORMRepository,
		friend.NewService,
		wire.Bind(new(friend.Service), new(*friend.ServiceImplementation)),
		wire.Bind(new(readmodel.FriendSource), new(*friend.ServiceImplementation)),
		friend.NewHandler,

		// Read models
		provideOwnerResolver,
		readmodel.NewService,
		wire.Bind(new(readmodel.Service), new(*readmodel.ServiceImplementation)),
		readmodel.NewHandler,

		// Search
		wire.Bind(new(search.OwnerNameResolver), new(*readmodel.OwnerResolver)),
		search.NewService,
		wire.Bind(new(search.Service), new(*search.ServiceImplementation)),
		search.NewHandler,
		search.NewMirror,
		provideReindexer,
		wire.Bind(new(jobs.Reindexer), new(*search.Reindexer)),
		jobs.NewSearchReindexJob,

		// Application Layer
		wire.Struct(new(app.Handlers), "*"),
		wire.Struct(new(app.Consumers), "*"),
		app.NewServer,
	)
	return nil, nil, nil
}
