package convictional

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"order-reconciler/internal/config"
	"order-reconciler/internal/models"
)

// ordersEnvelope is the paginated response of the orders search endpoint
type ordersEnvelope struct {
	Data struct {
		Orders []models.ConvictionalOrder `json:"orders"`
	} `json:"data"`
	HasMore bool   `json:"has_more"`
	Next    string `json:"next"`
	Error   bool   `json:"error"`
}

// Client fetches orders from the Convictional API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	searchPath  string
	apiToken    string
	windowStart string
	windowEnd   string
	pageLimiter *rate.Limiter
	logger      *logrus.Logger
}

// NewClient creates a new Convictional API client
func NewClient(cfg config.ConvictionalConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		searchPath:  cfg.SearchPath,
		apiToken:    cfg.APIToken,
		windowStart: cfg.WindowStartTime,
		windowEnd:   cfg.WindowEndTime,
		pageLimiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
		logger:      logger,
	}
}

// FetchOrders retrieves all orders created between startDate and
// endDate (YYYY-MM-DD) matching the flagged filter, following the
// server-supplied next URL across pages. Pagination stops on the first
// transport, HTTP or decode failure; orders accumulated from earlier
// pages are returned alongside the error.
func (c *Client) FetchOrders(ctx context.Context, startDate, endDate string, flagged bool) ([]models.ConvictionalOrder, error) {
	params := url.Values{}
	params.Set("createdAt[after]", fmt.Sprintf("%sT%s", startDate, c.windowStart))
	params.Set("createdAt[before]", fmt.Sprintf("%sT%s", endDate, c.windowEnd))
	params.Set("filters[flagged]", fmt.Sprintf("%t", flagged))

	c.logger.WithFields(logrus.Fields{
		"createdAfter":  params.Get("createdAt[after]"),
		"createdBefore": params.Get("createdAt[before]"),
		"flagged":       flagged,
	}).Info("Fetching Convictional orders")

	var allOrders []models.ConvictionalOrder
	nextURL := c.baseURL + c.searchPath + "?" + params.Encode()
	pageNum := 1

	for nextURL != "" {
		// Paced at one page per delay interval; the first permit is free.
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return allOrders, err
		}

		envelope, err := c.fetchPage(ctx, nextURL)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"page":        pageNum,
				"accumulated": len(allOrders),
				"error":       err.Error(),
			}).Error("Stopping pagination, keeping orders fetched so far")
			return allOrders, err
		}

		if envelope.Error {
			c.logger.WithFields(logrus.Fields{
				"page":        pageNum,
				"accumulated": len(allOrders),
			}).Warn("Convictional response carried an error flag, stopping pagination")
			break
		}

		if len(envelope.Data.Orders) > 0 {
			allOrders = append(allOrders, envelope.Data.Orders...)
			c.logger.WithFields(logrus.Fields{
				"page":   pageNum,
				"orders": len(envelope.Data.Orders),
			}).Info("Fetched page")
		} else {
			c.logger.WithField("page", pageNum).Info("No orders found on page")
		}

		if !envelope.HasMore {
			c.logger.WithField("page", pageNum).Info("No more pages")
			break
		}
		if envelope.Next == "" {
			c.logger.WithField("page", pageNum).Warn("has_more set but no next URL, stopping pagination")
			break
		}

		// The next URL encodes the server's own continuation state;
		// the original query parameters are not re-attached.
		nextURL = envelope.Next
		pageNum++
	}

	c.logger.WithFields(logrus.Fields{
		"total":   len(allOrders),
		"flagged": flagged,
	}).Info("Finished fetching Convictional orders")
	return allOrders, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*ordersEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Convictional API error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope ordersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	return &envelope, nil
}
