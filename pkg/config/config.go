package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Frontend  FrontendConfig
	Verify    VerifyConfig
	Archive   ArchiveConfig
	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FrontendConfig points at the web client that renders verification pages.
type FrontendConfig struct {
	URL string
}

// VerifyConfig governs caching of the public verification view.
type VerifyConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ArchiveConfig controls the background archive of approved document PDFs.
type ArchiveConfig struct {
	Enabled    bool
	StorageDir string
	Workers    int
	Retries    int
}

// BootstrapConfig carries the credentials for the default administrator and
// the initial password handed to users created by an administrator.
type BootstrapConfig struct {
	AdminEmail          string
	AdminPassword       string
	AdminName           string
	UserDefaultPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Frontend = FrontendConfig{URL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/")}
	if cfg.Frontend.URL == "" {
		cfg.Frontend.URL = defaultFrontendURL
	}

	cfg.Verify = VerifyConfig{
		CacheEnabled: v.GetBool("ENABLE_VERIFY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("VERIFY_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Archive = ArchiveConfig{
		Enabled:    v.GetBool("ARCHIVE_ENABLED"),
		StorageDir: v.GetString("ARCHIVE_STORAGE_DIR"),
		Workers:    v.GetInt("ARCHIVE_WORKERS"),
		Retries:    v.GetInt("ARCHIVE_RETRIES"),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:          v.GetString("ADMIN_DEFAULT_EMAIL"),
		AdminPassword:       v.GetString("ADMIN_DEFAULT_PASSWORD"),
		AdminName:           v.GetString("ADMIN_DEFAULT_NAME"),
		UserDefaultPassword: v.GetString("USER_DEFAULT_PASSWORD"),
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Bootstrap.AdminPassword) == "" {
		return errors.New("ADMIN_DEFAULT_PASSWORD is not set")
	}
	if strings.TrimSpace(c.Bootstrap.AdminEmail) == "" {
		return errors.New("ADMIN_DEFAULT_EMAIL is not set")
	}
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	return nil
}

const (
	defaultFrontendURL = "http://localhost:3000"
	defaultJWTSecret   = "dev_secret"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rab")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "rab-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FRONTEND_URL", defaultFrontendURL)

	v.SetDefault("ENABLE_VERIFY_CACHE", false)
	v.SetDefault("VERIFY_CACHE_TTL", "10m")

	v.SetDefault("ARCHIVE_ENABLED", false)
	v.SetDefault("ARCHIVE_STORAGE_DIR", "./archives")
	v.SetDefault("ARCHIVE_WORKERS", 1)
	v.SetDefault("ARCHIVE_RETRIES", 3)

	v.SetDefault("ADMIN_DEFAULT_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_DEFAULT_PASSWORD", "")
	v.SetDefault("ADMIN_DEFAULT_NAME", "Admin Default")
	v.SetDefault("USER_DEFAULT_PASSWORD", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
