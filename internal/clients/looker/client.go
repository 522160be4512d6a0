package looker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/config"
)

// Client runs saved Looker queries through the Looker API 4.0
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	logger       *logrus.Logger
}

// NewClient creates a new Looker API client
func NewClient(cfg config.LookerConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		logger:       logger,
	}
}

// RunLook executes the saved look and returns its rows as JSON objects
func (c *Client) RunLook(ctx context.Context, lookID string) ([]map[string]interface{}, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Looker session: %w", err)
	}

	runURL := fmt.Sprintf("%s/api/4.0/looks/%s/run/json", c.baseURL, lookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, runURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to run look %s: %w", lookID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read look %s response: %w", lookID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Looker API error (status %d): %s", resp.StatusCode, string(body))
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode look %s response: %w", lookID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"lookId": lookID,
		"rows":   len(rows),
	}).Info("Fetched look data")
	return rows, nil
}

// login exchanges the API credentials for a short-lived access token
func (c *Client) login(ctx context.Context) (string, error) {
	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/4.0/login", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(body))
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if loginResp.AccessToken == "" {
		return "", fmt.Errorf("login response contained no access_token")
	}

	return loginResp.AccessToken, nil
}
