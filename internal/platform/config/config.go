package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// IdentityConfig configures the HTTP identity provider adapter.
//
// These values are deployment-provided.
type IdentityConfig struct {
	// BaseURL is the root of the provider's auth API
	// (e.g. https://project.example.com/auth/v1).
	BaseURL string
	// APIKey is the provider's public API key, sent as the apikey header.
	APIKey string

	HTTPTimeout time.Duration
}

// FunctionsConfig configures the remote function invocation adapter.
type FunctionsConfig struct {
	// BaseURL is the root of the functions API
	// (e.g. https://project.example.com/functions/v1).
	BaseURL string

	HTTPTimeout time.Duration
}

// WorkflowConfig holds the strictness toggles for the lifecycle workflows.
// Both default to the permissive observed behavior.
type WorkflowConfig struct {
	// RecoveryRequireRefreshToken rejects recovery fragments without a
	// refresh_token instead of defaulting it to empty.
	RecoveryRequireRefreshToken bool

	// DeletionRequireSession makes the account-erase step fail instead of
	// no-op when no session token is available.
	DeletionRequireSession bool

	// RecoveryGuardTTL bounds how long consumed recovery tokens stay marked.
	RecoveryGuardTTL time.Duration
}

func LoadIdentityConfigFromEnv() (IdentityConfig, error) {
	baseURL := os.Getenv("IDENTITY_BASE_URL")
	if baseURL == "" {
		return IdentityConfig{}, fmt.Errorf("missing required env var: IDENTITY_BASE_URL")
	}

	cfg := IdentityConfig{
		BaseURL:     baseURL,
		APIKey:      os.Getenv("IDENTITY_API_KEY"),
		HTTPTimeout: 5 * time.Second,
	}
	if v := os.Getenv("IDENTITY_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return IdentityConfig{}, fmt.Errorf("IDENTITY_HTTP_TIMEOUT must be a duration (e.g. 5s): %w", err)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
}

func LoadFunctionsConfigFromEnv() (FunctionsConfig, error) {
	baseURL := os.Getenv("FUNCTIONS_BASE_URL")
	if baseURL == "" {
		return FunctionsConfig{}, fmt.Errorf("missing required env var: FUNCTIONS_BASE_URL")
	}

	cfg := FunctionsConfig{
		BaseURL:     baseURL,
		HTTPTimeout: 10 * time.Second,
	}
	if v := os.Getenv("FUNCTIONS_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return FunctionsConfig{}, fmt.Errorf("FUNCTIONS_HTTP_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
}

func LoadWorkflowConfigFromEnv() (WorkflowConfig, error) {
	cfg := WorkflowConfig{
		RecoveryGuardTTL: time.Hour,
	}

	var err error
	if cfg.RecoveryRequireRefreshToken, err = boolEnv("RECOVERY_REQUIRE_REFRESH_TOKEN"); err != nil {
		return WorkflowConfig{}, err
	}
	if cfg.DeletionRequireSession, err = boolEnv("DELETION_REQUIRE_SESSION"); err != nil {
		return WorkflowConfig{}, err
	}
	if v := os.Getenv("RECOVERY_GUARD_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return WorkflowConfig{}, fmt.Errorf("RECOVERY_GUARD_TTL must be a duration (e.g. 1h): %w", err)
		}
		cfg.RecoveryGuardTTL = d
	}
	return cfg, nil
}

func boolEnv(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, err)
	}
	return b, nil
}
