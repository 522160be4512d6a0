package config

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	secrets map[string]string
}

func (r *stubResolver) AccessSecret(ctx context.Context, secretName string) (string, error) {
	value, ok := r.secrets[secretName]
	if !ok {
		return "", fmt.Errorf("secret %s not found", secretName)
	}
	return value, nil
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Flip.MaxRetries)
	assert.Equal(t, 250, cfg.Flip.PageLimit)
	assert.Equal(t, 10, cfg.Flip.LookupLimit)
	assert.Equal(t, "/shop/admin/orders/%s/cancel/v1", cfg.Flip.CancelPathTemplate)
	assert.Equal(t, time.Second, cfg.Flip.AuthBackoff)
	assert.Equal(t, 2*time.Second, cfg.Flip.NetworkBackoff)
	assert.Equal(t, 30*time.Second, cfg.Flip.Timeout)
	assert.Equal(t, "08:00:00.000Z", cfg.Convictional.WindowStartTime)
	assert.Equal(t, "19:32:01.584Z", cfg.Convictional.WindowEndTime)
	assert.Equal(t, 500*time.Millisecond, cfg.Convictional.PageDelay)
	assert.Equal(t, "851", cfg.Looker.LookID)
	assert.Equal(t, "flagged_orders.csv", cfg.Pipeline.OutputPath)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CONVICTIONAL_API_BASE_URL", "https://api.convictional.test")
	t.Setenv("MAX_RETRIES_FLIP", "3")
	t.Setenv("ALLOWED_FLIP_STATE", "Created")

	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.convictional.test", cfg.Convictional.BaseURL)
	assert.Equal(t, 3, cfg.Flip.MaxRetries)
	assert.Equal(t, "Created", cfg.Pipeline.AllowedFlipState)
}

func TestLoadClampsNegativeRetries(t *testing.T) {
	t.Setenv("MAX_RETRIES_FLIP", "-2")

	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Flip.MaxRetries)
}

func TestLoadResolvesSecretRefs(t *testing.T) {
	t.Setenv("FLIP_CLIENT_SECRET_SECRET_NAME", "flip-secret")
	resolver := &stubResolver{secrets: map[string]string{"flip-secret": "s3cret"}}

	cfg, err := Load(context.Background(), resolver)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Flip.ClientSecret)
}

func TestLoadFailsWhenSecretUnresolvable(t *testing.T) {
	t.Setenv("FLIP_CLIENT_SECRET_SECRET_NAME", "missing")

	_, err := Load(context.Background(), &stubResolver{})

	assert.Error(t, err)
}

func TestLoadSecretRefIgnoredWithoutResolver(t *testing.T) {
	t.Setenv("FLIP_CLIENT_SECRET_SECRET_NAME", "flip-secret")
	t.Setenv("FLIP_CLIENT_SECRET", "plain")

	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "plain", cfg.Flip.ClientSecret)
}

func TestConvictionalValidate(t *testing.T) {
	cfg := ConvictionalConfig{}
	assert.ErrorContains(t, cfg.Validate(), "CONVICTIONAL_API_BASE_URL")

	cfg.BaseURL = "https://api.convictional.test"
	assert.ErrorContains(t, cfg.Validate(), "CONVICTIONAL_ORDERS_SEARCH_PATH")

	cfg.SearchPath = "/orders/search"
	assert.ErrorContains(t, cfg.Validate(), "CONVICTIONAL_API_TOKEN")

	cfg.APIToken = "tok"
	assert.NoError(t, cfg.Validate())
}

func TestFlipValidate(t *testing.T) {
	cfg := FlipConfig{
		BaseURL:         "https://api.flip.test",
		OrdersPath:      "/orders",
		DisableSKUsPath: "/skus",
		TokenURL:        "https://auth.flip.test/token",
		ClientID:        "cid",
		ClientSecret:    "secret",
	}
	assert.NoError(t, cfg.Validate())

	cfg.TokenURL = ""
	assert.ErrorContains(t, cfg.Validate(), "FLIP_TOKEN_URL")
}

func TestPipelineValidate(t *testing.T) {
	cfg := PipelineConfig{}
	assert.ErrorContains(t, cfg.Validate(), "ALLOWED_FLIP_STATE")

	cfg.AllowedFlipState = "Created"
	assert.NoError(t, cfg.Validate())
}
