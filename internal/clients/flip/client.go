package flip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients"
	"order-reconciler/internal/config"
	"order-reconciler/internal/models"
)

// Client wraps the Flip fulfillment API. Order status lookups carry the
// bounded 401/network retry protocol; the mutation endpoints (disable
// SKU, cancel order) are fire-once.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	ordersPath         string
	disableSKUsPath    string
	cancelPathTemplate string
	toolsHeader        string
	pageLimit          int
	lookupLimit        int
	maxRetries         int
	authBackoff        time.Duration
	networkBackoff     time.Duration
	tokens             clients.TokenProvider
	logger             *logrus.Logger
}

// NewClient creates a new Flip API client
func NewClient(cfg config.FlipConfig, tokens clients.TokenProvider, logger *logrus.Logger) *Client {
	return &Client{
		httpClient:         &http.Client{Timeout: cfg.Timeout},
		baseURL:            cfg.BaseURL,
		ordersPath:         cfg.OrdersPath,
		disableSKUsPath:    cfg.DisableSKUsPath,
		cancelPathTemplate: cfg.CancelPathTemplate,
		toolsHeader:        cfg.ToolsHeader,
		pageLimit:          cfg.PageLimit,
		lookupLimit:        cfg.LookupLimit,
		maxRetries:         cfg.MaxRetries,
		authBackoff:        cfg.AuthBackoff,
		networkBackoff:     cfg.NetworkBackoff,
		tokens:             tokens,
		logger:             logger,
	}
}

// Token obtains a bearer token for the mutation endpoints
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.AccessToken(ctx)
}

// GetOrderStatus looks up the fulfillment orders matching a buyer order
// code. A fresh token is obtained before every attempt. 401 responses
// and transport failures are retried up to maxRetries times with a
// short backoff; any other failure ends the call immediately. The
// returned status is the last HTTP status observed, zero when none.
func (c *Client) GetOrderStatus(ctx context.Context, buyerOrderCode string) (*models.FlipOrdersResponse, int) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("customerOrderId", buyerOrderCode)
	fullURL := c.baseURL + c.ordersPath + "?" + params.Encode()

	lastStatus := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			c.logger.WithField("error", err.Error()).Error("Failed to get Flip access token, cannot fetch order status")
			return nil, lastStatus
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, lastStatus
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-flipinator-tools", c.toolsHeader)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"buyerOrderCode": buyerOrderCode,
				"attempt":        attempt + 1,
				"error":          err.Error(),
			}).Error("Flip order status request failed")
			if attempt < c.maxRetries {
				if !c.wait(ctx, c.networkBackoff) {
					return nil, lastStatus
				}
				continue
			}
			c.logger.Error("Max retries reached for Flip API after connection error")
			return nil, lastStatus
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus = resp.StatusCode
		if readErr != nil {
			c.logger.WithField("error", readErr.Error()).Error("Failed to read Flip response body")
			if attempt < c.maxRetries {
				if !c.wait(ctx, c.networkBackoff) {
					return nil, lastStatus
				}
				continue
			}
			return nil, lastStatus
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var payload models.FlipOrdersResponse
			if err := json.Unmarshal(body, &payload); err != nil {
				c.logger.WithField("body", string(body)).Error("Failed to decode Flip order status response")
				return nil, lastStatus
			}
			return &payload, lastStatus

		case resp.StatusCode == http.StatusUnauthorized:
			c.logger.WithFields(logrus.Fields{
				"buyerOrderCode": buyerOrderCode,
				"attempt":        attempt + 1,
				"maxAttempts":    c.maxRetries + 1,
			}).Warn("Received 401 Unauthorized from Flip API")
			if attempt < c.maxRetries {
				if !c.wait(ctx, c.authBackoff) {
					return nil, lastStatus
				}
				continue
			}
			c.logger.Error("Max retries reached for Flip API after 401")
			return nil, lastStatus

		default:
			c.logger.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"body":   string(body),
			}).Error("Flip order status request failed")
			return nil, lastStatus
		}
	}

	return nil, lastStatus
}

// DisableSKU disables a single SKU with the given audit status
func (c *Client) DisableSKU(ctx context.Context, token, sku, auditStatus string) error {
	payload := map[string]interface{}{
		"skus":        []string{sku},
		"auditStatus": auditStatus,
	}

	body, err := c.doJSON(ctx, http.MethodPut, c.baseURL+c.disableSKUsPath, token, payload)
	if err != nil {
		return fmt.Errorf("failed to disable SKU %s: %w", sku, err)
	}

	c.logger.WithFields(logrus.Fields{
		"sku":         sku,
		"auditStatus": auditStatus,
		"response":    string(body),
	}).Info("Disabled SKU")
	return nil
}

// LookupOrder resolves a buyer order code to Flip's internal order id
func (c *Client) LookupOrder(ctx context.Context, token, buyerOrderCode string) (string, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(c.lookupLimit))
	params.Set("customerOrderId", buyerOrderCode)

	body, err := c.doJSON(ctx, http.MethodGet, c.baseURL+c.ordersPath+"?"+params.Encode(), token, nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up order for %s: %w", buyerOrderCode, err)
	}

	var payload models.FlipOrdersResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode order lookup response for %s: %w", buyerOrderCode, err)
	}
	if len(payload.Data) == 0 {
		return "", fmt.Errorf("no orders returned for buyer order code %s", buyerOrderCode)
	}
	if payload.Data[0].ID == "" {
		return "", fmt.Errorf("no order id in the response for buyer order code %s", buyerOrderCode)
	}

	c.logger.WithFields(logrus.Fields{
		"buyerOrderCode": buyerOrderCode,
		"orderId":        payload.Data[0].ID,
	}).Info("Found Flip order")
	return payload.Data[0].ID, nil
}

// CancelOrder cancels an order by its Flip internal id
func (c *Client) CancelOrder(ctx context.Context, token, orderID string) error {
	payload := map[string]interface{}{
		"itemsBackToCart":              false,
		"reasonForCancellation":        "integrationFailure",
		"shouldCancelAdditionalOrders": false,
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.baseURL+fmt.Sprintf(c.cancelPathTemplate, orderID), token, payload)
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	var cancelResp models.FlipCancelResponse
	if err := json.Unmarshal(body, &cancelResp); err != nil {
		return fmt.Errorf("failed to decode cancel response for order %s: %w", orderID, err)
	}
	if cancelResp.Data.Result != "success" {
		return fmt.Errorf("cancellation failed for order %s: %s", orderID, string(body))
	}

	c.logger.WithField("orderId", orderID).Info("Cancelled order")
	return nil
}

// doJSON performs an authenticated fire-once request and returns the
// response body on any 2xx status
func (c *Client) doJSON(ctx context.Context, method, fullURL, token string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-flipinator-tools", c.toolsHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Flip API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// wait sleeps for the given backoff, honoring context cancellation
func (c *Client) wait(ctx context.Context, backoff time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(backoff):
		return true
	}
}
