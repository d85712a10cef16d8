package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Cloudinary CloudinaryConfig
	Mail       MailConfig
	Tracking   TrackingConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// RedisConfig configures the live-tracking store. An empty Addr disables it:
// the server still runs, but cross-request out-of-bounds bookkeeping and the
// live-tracking endpoints degrade (see internal/livestore).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type MailConfig struct {
	SendgridKey string
	FromName    string
	FromAddress string
	PortalURL   string
}

// TrackingConfig holds the geofence attendance parameters. UTCOffset is the
// deployment's wall-clock offset used for shift comparisons; the product runs
// in a single timezone so this is a config value, not per-user data.
type TrackingConfig struct {
	UTCOffset          time.Duration
	GracePeriod        time.Duration
	ViolationThreshold time.Duration
	PositionTTL        time.Duration
	EncryptionKey      string // 32 bytes, hex or raw; PII columns are AES-GCM encrypted
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8090"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "lizza:lizza@tcp(localhost:3306)/lizza?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "lizza",
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getenv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getenv("CLOUDINARY_API_KEY", ""),
			APISecret: getenv("CLOUDINARY_API_SECRET", ""),
		},
		Mail: MailConfig{
			SendgridKey: getenv("SENDGRID_API_KEY", ""),
			FromName:    getenv("MAIL_FROM_NAME", "LIZZA HR"),
			FromAddress: getenv("MAIL_FROM_ADDRESS", "hr@lizza.com"),
			PortalURL:   getenv("PORTAL_URL", "https://portal.lizza.com"),
		},
		Tracking: TrackingConfig{
			UTCOffset:          getenvDuration("TRACKING_UTC_OFFSET", 5*time.Hour+30*time.Minute),
			GracePeriod:        15 * time.Minute,
			ViolationThreshold: 300 * time.Second,
			PositionTTL:        60 * time.Second,
			EncryptionKey:      getenv("DATA_KEY", ""),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
