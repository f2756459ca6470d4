package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"menu-app-go/pkg/logger"
)

type Config struct {
	HTTPPort    string
	Env         string
	CORSOrigins []string
	DB          DBConfig
	Auth        AuthConfig
	Mail        MailConfig
	Media       MediaConfig
	Digest      DigestConfig
	Metrics     MetricsConfig
	Superuser   SuperuserConfig
	// MenuCacheTTL bounds how long menu listings are served from memory; 0 disables.
	MenuCacheTTL time.Duration
}

type DBConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type MailConfig struct {
	Transport    string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AWSRegion    string
}

type MediaConfig struct {
	Backend       string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Prefix      string
	PublicBaseURL string
	LocalDir      string
	MaxUploadMB   int64
}

type DigestConfig struct {
	Enabled  bool
	Hour     int
	Minute   int
	TimeZone string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// SuperuserConfig seeds the createsuperuser command flags.
type SuperuserConfig struct {
	Username string
	Email    string
	Password string
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		DB: DBConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "menu_app"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "menu-app.sqlite3"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			LogQueries:      getEnvBool("DB_LOG_QUERIES", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Mail: MailConfig{
			Transport:    strings.ToLower(getEnv("MAIL_TRANSPORT", "log")),
			From:         getEnv("MAIL_FROM", "menu@localhost"),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			AWSRegion:    getEnv("AWS_REGION", "eu-central-1"),
		},
		Media: MediaConfig{
			Backend:       strings.ToLower(getEnv("MEDIA_BACKEND", "local")),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", getEnv("AWS_REGION", "eu-central-1")),
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
			S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
			S3Prefix:      getEnv("S3_PREFIX", "photos"),
			PublicBaseURL: strings.TrimRight(getEnv("MEDIA_PUBLIC_URL", "/media"), "/"),
			LocalDir:      getEnv("MEDIA_LOCAL_DIR", "media"),
			MaxUploadMB:   int64(getEnvInt("MEDIA_MAX_UPLOAD_MB", 10)),
		},
		Digest: DigestConfig{
			Enabled:  getEnvBool("DIGEST_ENABLED", true),
			Hour:     getEnvInt("DIGEST_HOUR", 8),
			Minute:   getEnvInt("DIGEST_MINUTE", 0),
			TimeZone: getEnv("DIGEST_TIMEZONE", "UTC"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Superuser: SuperuserConfig{
			Username: getEnv("SUPERUSER_NAME", ""),
			Email:    getEnv("SUPERUSER_EMAIL", ""),
			Password: getEnv("SUPERUSER_PASSWORD", ""),
		},
		MenuCacheTTL: getEnvDuration("MENU_CACHE_TTL", 15*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Env != "development" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.Digest.Hour < 0 || c.Digest.Hour > 23 {
		return fmt.Errorf("DIGEST_HOUR must be within 0..23")
	}
	if c.Digest.Minute < 0 || c.Digest.Minute > 59 {
		return fmt.Errorf("DIGEST_MINUTE must be within 0..59")
	}
	if _, err := time.LoadLocation(c.Digest.TimeZone); err != nil {
		return fmt.Errorf("DIGEST_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the zone used for digest dates and zone-less query filters.
func (c DigestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
