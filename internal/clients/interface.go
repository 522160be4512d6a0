package clients

import (
	"context"

	"order-reconciler/internal/models"
)

// OrderSource fetches flagged orders from the order-management API.
type OrderSource interface {
	// FetchOrders returns all orders created between the start and end
	// dates (YYYY-MM-DD) matching the flagged filter, across all pages.
	// The returned slice is valid even when err is non-nil: pagination
	// failures preserve the pages accumulated before the failure.
	FetchOrders(ctx context.Context, startDate, endDate string, flagged bool) ([]models.ConvictionalOrder, error)
}

// TokenProvider yields a bearer token for the fulfillment API. Every
// call may return a different token; callers must not assume caching.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// FulfillmentAPI wraps the Flip fulfillment endpoints.
type FulfillmentAPI interface {
	// GetOrderStatus looks up the fulfillment orders matching a buyer
	// order code. The response is nil when no decodable payload was
	// obtained; status is the last observed HTTP status, zero when none.
	GetOrderStatus(ctx context.Context, buyerOrderCode string) (*models.FlipOrdersResponse, int)

	// Token obtains a bearer token for the mutation endpoints.
	Token(ctx context.Context) (string, error)

	// DisableSKU disables a single SKU with the given audit status.
	DisableSKU(ctx context.Context, token, sku, auditStatus string) error

	// LookupOrder resolves a buyer order code to Flip's internal order id.
	LookupOrder(ctx context.Context, token, buyerOrderCode string) (string, error)

	// CancelOrder cancels an order by its Flip internal id.
	CancelOrder(ctx context.Context, token, orderID string) error
}

// ReportSource runs saved reporting queries.
type ReportSource interface {
	RunLook(ctx context.Context, lookID string) ([]map[string]interface{}, error)
}
