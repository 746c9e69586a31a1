package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Client configuration
	Client ClientConfig

	// Server configuration (sponsor-api only)
	Server ServerConfig

	// Participant sync configuration (sponsor-api only)
	Participants ParticipantsConfig

	// Database Configuration
	Database DatabaseConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ClientConfig holds settings used by the CLI when talking to the Auth API
type ClientConfig struct {
	APIURL       string        // overrides the server picked from sponsor.yaml
	Timeout      time.Duration // bound on every Auth API call
	SessionStore string        // keyring, file, memory
}

// ServerConfig holds settings for the Auth API server
type ServerConfig struct {
	ListenAddr     string
	JWTSecret      string
	CORSOrigins    []string
	BootstrapEmail string
	BootstrapPass  string
}

// ParticipantsConfig points the Auth API at the registration exports the
// participant table is rebuilt from. Sync is off without a SourceURL.
type ParticipantsConfig struct {
	SourceURL  string
	ResumesURL string
	Schedule   string // cron expression or descriptor, e.g. "@every 15m"
	Timeout    time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout := 15 * time.Second
	if raw := os.Getenv("SPONSOR_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SPONSOR_HTTP_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("SPONSOR_HTTP_TIMEOUT must be positive, got %s", d)
		}
		timeout = d
	}

	store := strings.ToLower(getenv("SPONSOR_SESSION_STORE", "keyring"))
	switch store {
	case "keyring", "file", "memory":
	default:
		return nil, fmt.Errorf("invalid SPONSOR_SESSION_STORE %q (want keyring, file or memory)", store)
	}

	syncTimeout := 30 * time.Second
	if raw := os.Getenv("PARTICIPANTS_SYNC_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid PARTICIPANTS_SYNC_TIMEOUT %q", raw)
		}
		syncTimeout = d
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ORIGINS", "http://localhost:4200"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Client: ClientConfig{
			APIURL:       strings.TrimRight(os.Getenv("SPONSOR_API_URL"), "/"),
			Timeout:      timeout,
			SessionStore: store,
		},
		Server: ServerConfig{
			ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
			JWTSecret:      os.Getenv("JWT_SECRET"),
			CORSOrigins:    origins,
			BootstrapEmail: os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapPass:  os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Participants: ParticipantsConfig{
			SourceURL:  os.Getenv("PARTICIPANTS_SOURCE_URL"),
			ResumesURL: os.Getenv("PARTICIPANTS_RESUMES_URL"),
			Schedule:   getenv("PARTICIPANTS_SYNC_SCHEDULE", "@every 15m"),
			Timeout:    syncTimeout,
		},
		Database: DatabaseConfig{
			URL: getenv("DATABASE_URL", "sponsor.sqlite"),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
