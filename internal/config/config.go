package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"`
	SQLitePath        string        `mapstructure:"SQLITE_PATH"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Listings, comments and read models
	MaxListingImages    int    `mapstructure:"MAX_LISTING_IMAGES"`
	RecentListingsLimit int    `mapstructure:"RECENT_LISTINGS_LIMIT"`
	DefaultOwnerName    string `mapstructure:"DEFAULT_OWNER_NAME"`
	DefaultAvatarURL    string `mapstructure:"DEFAULT_AVATAR_URL"`

	// Cron Jobs
	SearchReindexJobSchedule string `mapstructure:"SEARCH_REINDEX_JOB_SCHEDULE"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseStorageBucket         string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	// Check every ID token for revocation at Firebase, not only against the revocation cache.
	AuthCheckRevoked bool `mapstructure:"AUTH_CHECK_REVOKED"`

	// Object storage: "local" or "firebase"
	StorageBackend     string `mapstructure:"STORAGE_BACKEND"`
	ImageStoragePath   string `mapstructure:"IMAGE_STORAGE_PATH"`
	ImagePublicBaseURL string `mapstructure:"IMAGE_PUBLIC_BASE_URL"`

	// Elasticsearch Configuration
	ElasticsearchURL     string `mapstructure:"ELASTICSEARCH_URL"`
	ElasticsearchRefresh string `mapstructure:"ELASTICSEARCH_REFRESH"`

	// Change feed. An empty NATS_URL selects the in-process bus.
	NatsURL           string `mapstructure:"NATS_URL"`
	NatsSubjectPrefix string `mapstructure:"NATS_SUBJECT_PREFIX"`
	NatsQueueGroup    string `mapstructure:"NATS_QUEUE_GROUP"`

	// Read-model cache: "memory" or "redis"
	CacheBackend    string        `mapstructure:"CACHE_BACKEND"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ProfileCacheTTL time.Duration `mapstructure:"PROFILE_CACHE_TTL_SECONDS"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields are configured as plain integers.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.ProfileCacheTTL = time.Duration(v.GetInt("PROFILE_CACHE_TTL_SECONDS")) * time.Second

	if strings.TrimSpace(v.GetString("DB_SOURCE")) == "" {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "fishtopia")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("SQLITE_PATH", "fishtopia.db")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("MAX_LISTING_IMAGES", 6)
	v.SetDefault("RECENT_LISTINGS_LIMIT", 5)
	v.SetDefault("DEFAULT_OWNER_NAME", "Anonymous")
	v.SetDefault("DEFAULT_AVATAR_URL", "https://flowbite.com/docs/images/people/profile-picture-5.jpg")

	v.SetDefault("SEARCH_REINDEX_JOB_SCHEDULE", "@hourly")

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("AUTH_CHECK_REVOKED", false)

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("IMAGE_STORAGE_PATH", "./uploads")
	v.SetDefault("IMAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads")

	v.SetDefault("ELASTICSEARCH_URL", "http://localhost:9200")
	v.SetDefault("ELASTICSEARCH_REFRESH", "false")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "fishtopia.documents")
	v.SetDefault("NATS_QUEUE_GROUP", "search-mirror")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PROFILE_CACHE_TTL_SECONDS", 300)
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.StorageBackend {
	case "local":
	case "firebase":
		if strings.TrimSpace(c.FirebaseStorageBucket) == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when STORAGE_BACKEND=firebase")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be local or firebase, got %q", c.StorageBackend)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend)
	}
	if c.MaxListingImages <= 0 {
		return fmt.Errorf("MAX_LISTING_IMAGES must be positive")
	}
	// Without a key file the Admin SDK falls back to application default credentials.
	if path := strings.TrimSpace(c.FirebaseServiceAccountKeyPath); path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", path)
		}
	}
	return nil
}
