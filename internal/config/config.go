package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

// SecretResolver resolves a named secret to its value. Satisfied by
// secrets.GCPSecretManager; nil disables secret resolution.
type SecretResolver interface {
	AccessSecret(ctx context.Context, secretName string) (string, error)
}

// Config holds all configuration for the reconciliation pipeline
type Config struct {
	Environment string
	LogLevel    string

	Convictional ConvictionalConfig
	Flip         FlipConfig
	Looker       LookerConfig
	Pipeline     PipelineConfig
}

// ConvictionalConfig configures the Convictional orders client
type ConvictionalConfig struct {
	BaseURL    string
	SearchPath string
	APIToken   string

	// Time-of-day suffixes appended to the window's start and end dates
	WindowStartTime string
	WindowEndTime   string

	PageDelay time.Duration
	Timeout   time.Duration
}

// FlipConfig configures the Flip fulfillment client
type FlipConfig struct {
	BaseURL            string
	OrdersPath         string
	DisableSKUsPath    string
	CancelPathTemplate string
	ToolsHeader        string

	TokenURL     string
	ClientID     string
	ClientSecret string

	MaxRetries  int
	PageLimit   int
	LookupLimit int

	AuthBackoff    time.Duration
	NetworkBackoff time.Duration
	Timeout        time.Duration
}

// LookerConfig configures the Looker reporting client
type LookerConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	LookID       string
	Timeout      time.Duration
}

// PipelineConfig configures the reconciliation pipeline itself
type PipelineConfig struct {
	AllowedFlipState string
	OutputPath       string
	LockPath         string
}

// Load loads configuration from environment variables. Credentials may
// alternatively be referenced by secret name (*_SECRET_NAME) and are
// then resolved through the given resolver. Missing required values are
// not an error here; each component surfaces them via its Validate
// method so a misconfigured step degrades to a logged no-op instead of
// failing the whole process.
func Load(ctx context.Context, resolver SecretResolver) (*Config, error) {
	convictionalToken, err := getSecretOrEnv(ctx, resolver, "CONVICTIONAL_API_TOKEN")
	if err != nil {
		return nil, err
	}
	flipClientSecret, err := getSecretOrEnv(ctx, resolver, "FLIP_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	lookerClientSecret, err := getSecretOrEnv(ctx, resolver, "LOOKER_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Convictional: ConvictionalConfig{
			BaseURL:         getEnv("CONVICTIONAL_API_BASE_URL", ""),
			SearchPath:      getEnv("CONVICTIONAL_ORDERS_SEARCH_PATH", ""),
			APIToken:        convictionalToken,
			WindowStartTime: getEnv("CONVICTIONAL_WINDOW_START_TIME", "08:00:00.000Z"),
			WindowEndTime:   getEnv("CONVICTIONAL_WINDOW_END_TIME", "19:32:01.584Z"),
			PageDelay:       getEnvAsDuration("CONVICTIONAL_PAGE_DELAY", 500*time.Millisecond),
			Timeout:         getEnvAsDuration("CONVICTIONAL_HTTP_TIMEOUT", 30*time.Second),
		},

		Flip: FlipConfig{
			BaseURL:            getEnv("FLIP_BASE_URL", ""),
			OrdersPath:         getEnv("FLIP_ORDERS_PATH", ""),
			DisableSKUsPath:    getEnv("FLIP_DISABLE_SKUS_PATH", ""),
			CancelPathTemplate: getEnv("FLIP_CANCEL_ORDERS_PATH", "/shop/admin/orders/%s/cancel/v1"),
			ToolsHeader:        getEnv("X_FLIPINATOR_TOOLS", ""),
			TokenURL:           getEnv("FLIP_TOKEN_URL", ""),
			ClientID:           getEnv("FLIP_CLIENT_ID", ""),
			ClientSecret:       flipClientSecret,
			MaxRetries:         getEnvAsInt("MAX_RETRIES_FLIP", 1),
			PageLimit:          getEnvAsInt("FLIP_PAGE_LIMIT", 250),
			LookupLimit:        getEnvAsInt("FLIP_LOOKUP_LIMIT", 10),
			AuthBackoff:        getEnvAsDuration("FLIP_AUTH_BACKOFF", 1*time.Second),
			NetworkBackoff:     getEnvAsDuration("FLIP_NETWORK_BACKOFF", 2*time.Second),
			Timeout:            getEnvAsDuration("FLIP_HTTP_TIMEOUT", 30*time.Second),
		},

		Looker: LookerConfig{
			BaseURL:      getEnv("LOOKER_BASE_URL", ""),
			ClientID:     getEnv("LOOKER_CLIENT_ID", ""),
			ClientSecret: lookerClientSecret,
			LookID:       getEnv("LOOKER_SOID_LOOK_ID", "851"),
			Timeout:      getEnvAsDuration("LOOKER_HTTP_TIMEOUT", 30*time.Second),
		},

		Pipeline: PipelineConfig{
			AllowedFlipState: getEnv("ALLOWED_FLIP_STATE", ""),
			OutputPath:       getEnv("FLAGGED_ORDERS_CSV", "flagged_orders.csv"),
			LockPath:         getEnv("RUN_LOCK_PATH", ".reconciler.lock"),
		},
	}

	if config.Flip.MaxRetries < 0 {
		config.Flip.MaxRetries = 0
	}

	return config, nil
}

// Validate checks the required Convictional settings
func (c ConvictionalConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("CONVICTIONAL_API_BASE_URL is required")
	}
	if c.SearchPath == "" {
		return fmt.Errorf("CONVICTIONAL_ORDERS_SEARCH_PATH is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("CONVICTIONAL_API_TOKEN is required")
	}
	return nil
}

// Validate checks the required Flip settings
func (c FlipConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("FLIP_BASE_URL is required")
	}
	if c.OrdersPath == "" {
		return fmt.Errorf("FLIP_ORDERS_PATH is required")
	}
	if c.DisableSKUsPath == "" {
		return fmt.Errorf("FLIP_DISABLE_SKUS_PATH is required")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("FLIP_TOKEN_URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("FLIP_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("FLIP_CLIENT_SECRET is required")
	}
	return nil
}

// Validate checks the required Looker settings
func (c LookerConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("LOOKER_BASE_URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("LOOKER_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("LOOKER_CLIENT_SECRET is required")
	}
	return nil
}

// Validate checks the required pipeline settings
func (c PipelineConfig) Validate() error {
	if c.AllowedFlipState == "" {
		return fmt.Errorf("ALLOWED_FLIP_STATE is required")
	}
	return nil
}

// getSecretOrEnv resolves <key>_SECRET_NAME through the resolver when
// set, falling back to the plain environment variable otherwise
func getSecretOrEnv(ctx context.Context, resolver SecretResolver, key string) (string, error) {
	if secretName := os.Getenv(key + "_SECRET_NAME"); secretName != "" && resolver != nil {
		value, err := resolver.AccessSecret(ctx, secretName)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", key, err)
		}
		return value, nil
	}
	return os.Getenv(key), nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
