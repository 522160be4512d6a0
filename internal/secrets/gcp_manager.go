package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// cacheEntry is a cached secret value with expiration
type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// GCPSecretManager resolves API credentials from Google Cloud Secret
// Manager. Credentials referenced by name in the environment are
// fetched at config-load time; values are cached with a short TTL so
// repeated loads within one run do not re-hit the API.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
	cache     map[string]*cacheEntry
	cacheMu   sync.RWMutex
	cacheTTL  time.Duration
}

// NewGCPSecretManager creates a new GCP Secret Manager client
func NewGCPSecretManager(ctx context.Context, projectID string) (*GCPSecretManager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	return &GCPSecretManager{
		client:    client,
		projectID: projectID,
		cache:     make(map[string]*cacheEntry),
		cacheTTL:  5 * time.Minute,
	}, nil
}

// Close closes the Secret Manager client
func (sm *GCPSecretManager) Close() error {
	if sm.client != nil {
		return sm.client.Close()
	}
	return nil
}

// AccessSecret retrieves the latest version of a secret as a string.
// secretName may be a bare secret ID or a fully qualified
// projects/{project}/secrets/{id} resource name.
func (sm *GCPSecretManager) AccessSecret(ctx context.Context, secretName string) (string, error) {
	fullName := sm.qualify(secretName)

	sm.cacheMu.RLock()
	if entry, ok := sm.cache[fullName]; ok && time.Now().Before(entry.expiresAt) {
		sm.cacheMu.RUnlock()
		return entry.value, nil
	}
	sm.cacheMu.RUnlock()

	accessRequest := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fullName + "/versions/latest",
	}

	result, err := sm.client.AccessSecretVersion(ctx, accessRequest)
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", secretName, err)
	}

	value := string(result.Payload.Data)

	sm.cacheMu.Lock()
	sm.cache[fullName] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(sm.cacheTTL),
	}
	sm.cacheMu.Unlock()

	return value, nil
}

func (sm *GCPSecretManager) qualify(secretName string) string {
	if strings.HasPrefix(secretName, "projects/") {
		return secretName
	}
	return fmt.Sprintf("projects/%s/secrets/%s", sm.projectID, secretName)
}
