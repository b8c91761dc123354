package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Server       ServerConfig
	Store        StoreConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Payment      PaymentConfig
	Notification NotificationConfig
	AI           AIConfig
	Admin        AdminConfig
	Secrets      SecretsConfig
	Logging      LoggingConfig
	CORS         CORSConfig
	Security     SecurityConfig
	RateLimit    RateLimitConfig
	Metrics      MetricsConfig
	Jobs         JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// PublicBaseURL is the site that serves proposal links and payment redirects
	PublicBaseURL string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// StoreConfig selects and configures the key-value store behind proposals
type StoreConfig struct {
	// Driver is one of "redis", "postgres", "sqlite" or "memory"
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	// Timeout bounds every store call (seconds)
	Timeout int
	// CreateTimeout bounds the proposal create path (seconds)
	CreateTimeout int
	// RecentListSize caps the recent proposals list
	RecentListSize int
	// RecentListLimit is how many recent proposals the operator list shows
	RecentListLimit int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type StorageConfig struct {
	// Mode is one of "local", "azure" or "s3"
	Mode                  string
	LocalBasePath         string
	LocalPublicURL        string
	CloudConnectionString string
	CloudContainer        string
	S3Bucket              string
	S3Region              string
	S3AccessKeyID         string
	S3SecretAccessKey     string
	S3PublicURL           string
	MaxUploadSizeMB       int64
}

// PaymentConfig configures the hosted checkout provider
type PaymentConfig struct {
	// Provider is "razorpay" or "none"
	Provider      string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	// Timeout bounds processor calls (seconds)
	Timeout int
}

// NotificationConfig configures outbound contact capture and email
type NotificationConfig struct {
	FormspreeEndpoint string
	SendGridAPIKey    string
	FromEmail         string
	FromName          string
	ToEmail           string
	Timeout           int
}

type AIConfig struct {
	OpenAIAPIKey string
	Model        string
	MaxTokens    int
	Temperature  float32
	SessionCap   int
	Timeout      int
}

// AdminConfig configures operator authentication
type AdminConfig struct {
	// PasswordHash is a bcrypt hash of the operator password
	PasswordHash string
	// Password is accepted only in development when no hash is configured
	Password       string
	TOTPSecret     string
	JWTSecret      string
	TokenTTLHours  int
	APIKey         string
	CookieName     string
	MaxAttempts    int
	LockoutSeconds int
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	// WebhookRequestsPerMinute applies to the processor webhook, keyed by IP
	WebhookRequestsPerMinute int
	WhitelistIPs             []string
	WhitelistPaths           []string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// JobsConfig configures background maintenance jobs
type JobsConfig struct {
	Enabled bool
	// KVReaperSchedule is a cron expression (with seconds) for purging expired SQL store rows
	KVReaperSchedule string
	Timeout          int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return secondsOr(s.RequestTimeout, 30)
}

// TimeoutDuration returns the per-call store timeout
func (s *StoreConfig) TimeoutDuration() time.Duration {
	return secondsOr(s.Timeout, 10)
}

// CreateTimeoutDuration returns the store timeout of the create path
func (s *StoreConfig) CreateTimeoutDuration() time.Duration {
	return secondsOr(s.CreateTimeout, 5)
}

// TimeoutDuration returns the payment processor timeout
func (p *PaymentConfig) TimeoutDuration() time.Duration {
	return secondsOr(p.Timeout, 10)
}

// TimeoutDuration returns the notification timeout
func (n *NotificationConfig) TimeoutDuration() time.Duration {
	return secondsOr(n.Timeout, 10)
}

// TimeoutDuration returns how long one job run may take
func (j *JobsConfig) TimeoutDuration() time.Duration {
	return time.Duration(j.Timeout) * time.Second
}

// TimeoutDuration returns the AI provider timeout
func (a *AIConfig) TimeoutDuration() time.Duration {
	return secondsOr(a.Timeout, 10)
}

// TokenTTL returns the admin session lifetime
func (a *AdminConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// LockoutDuration returns how long login is blocked after too many failures
func (a *AdminConfig) LockoutDuration() time.Duration {
	return secondsOr(a.LockoutSeconds, 60)
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Well-known env names used by hosting providers
	if cfg.Admin.APIKey == "" {
		cfg.Admin.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = v.GetString("ADMIN_PASSWORD")
	}
	if cfg.AI.OpenAIAPIKey == "" {
		cfg.AI.OpenAIAPIKey = v.GetString("OPENAI_API_KEY")
	}
	if cfg.Store.RedisAddr == "" {
		cfg.Store.RedisAddr = v.GetString("REDIS_ADDR")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source
// In development (or when secrets.source = "environment"), secrets come from env vars
// In staging/production (or when secrets.source = "vault"), secrets come from Azure Key Vault
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
			zap.Bool("use_key_vault", useKeyVault),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if !provider.IsVaultEnabled() {
		return nil, fmt.Errorf("vault provider not enabled despite USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Loading secrets from Azure Key Vault")

	if err := ApplySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// SecretSource resolves a named secret with an environment fallback
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// secretBinding maps a vault secret and its env fallback onto a config field
type secretBinding struct {
	vaultName string
	envName   string
	target    *string
}

// ApplySecrets overwrites secret-bearing config fields with values from src.
// Missing secrets leave the current value untouched.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	bindings := []secretBinding{
		{"redis-password", "STORE_REDISPASSWORD", &cfg.Store.RedisPassword},
		{"postgres-host", "DATABASE_HOST", &cfg.Database.Host},
		{"postgres-user", "DATABASE_USER", &cfg.Database.User},
		{"postgres-password", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"razorpay-key-id", "PAYMENT_KEYID", &cfg.Payment.KeyID},
		{"razorpay-key-secret", "PAYMENT_KEYSECRET", &cfg.Payment.KeySecret},
		{"razorpay-webhook-secret", "PAYMENT_WEBHOOKSECRET", &cfg.Payment.WebhookSecret},
		{"openai-api-key", "OPENAI_API_KEY", &cfg.AI.OpenAIAPIKey},
		{"sendgrid-api-key", "NOTIFICATION_SENDGRIDAPIKEY", &cfg.Notification.SendGridAPIKey},
		{"admin-password-hash", "ADMIN_PASSWORDHASH", &cfg.Admin.PasswordHash},
		{"admin-totp-secret", "ADMIN_TOTPSECRET", &cfg.Admin.TOTPSecret},
		{"admin-jwt-secret", "ADMIN_JWTSECRET", &cfg.Admin.JWTSecret},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.Admin.APIKey},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
		{"s3-secret-access-key", "STORAGE_S3SECRETACCESSKEY", &cfg.Storage.S3SecretAccessKey},
	}

	for _, b := range bindings {
		value, err := src.GetSecretOrEnv(ctx, b.vaultName, b.envName)
		if err != nil {
			continue
		}
		if value != "" {
			*b.target = value
		}
	}
	return nil
}

// Validate checks settings the server cannot run without
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "redis", "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.App.Environment == "production" {
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("admin.jwtSecret is required in production")
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("admin.passwordHash is required in production")
		}
		if c.Store.Driver == "memory" {
			return fmt.Errorf("memory store is not allowed in production")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "DevotionSim Proposal API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.publicBaseURL", "http://localhost:5173")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redisAddr", "localhost:6379")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.sqlitePath", "./data/proposals.db")
	v.SetDefault("store.timeout", 10)
	v.SetDefault("store.createTimeout", 5)
	v.SetDefault("store.recentListSize", 50)
	v.SetDefault("store.recentListLimit", 10)

	// Database defaults (postgres store driver and migrations)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "proposals")
	v.SetDefault("database.user", "proposals_user")
	v.SetDefault("database.password", "proposals_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.localPublicURL", "/uploads")
	v.SetDefault("storage.cloudContainer", "logos")
	v.SetDefault("storage.s3Region", "eu-west-1")
	v.SetDefault("storage.maxUploadSizeMB", 5)

	// Payment defaults
	v.SetDefault("payment.provider", "razorpay")
	v.SetDefault("payment.currency", "EUR")
	v.SetDefault("payment.timeout", 10)

	// Notification defaults
	v.SetDefault("notification.formspreeEndpoint", "https://formspree.io/f/xgvrveqe")
	v.SetDefault("notification.fromName", "DevotionSim")
	v.SetDefault("notification.timeout", 10)

	// AI defaults
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.maxTokens", 100)
	v.SetDefault("ai.temperature", 0.8)
	v.SetDefault("ai.sessionCap", 5)
	v.SetDefault("ai.timeout", 10)

	// Admin defaults
	v.SetDefault("admin.tokenTTLHours", 168) // 7 days
	v.SetDefault("admin.cookieName", "adminAuth")
	v.SetDefault("admin.maxAttempts", 5)
	v.SetDefault("admin.lockoutSeconds", 60)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID", "X-Session-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.webhookRequestsPerMinute", 300)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/ready", "/metrics"})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Jobs defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.kvReaperSchedule", "0 */15 * * * *")
	v.SetDefault("jobs.timeout", 60)
}
