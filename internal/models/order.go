package models

// ConvictionalOrder represents a flagged order returned by the
// Convictional orders search endpoint
type ConvictionalOrder struct {
	ID             string      `json:"_id"`
	BuyerOrderCode string      `json:"buyerOrderCode"`
	FlaggedMessage string      `json:"flaggedMessage"`
	Items          []OrderItem `json:"items"`
}

// OrderItem is a single line item on a Convictional order
type OrderItem struct {
	BuyerItemCode string `json:"buyerItemCode"`
}

// FlipOrder is a single order as returned by the Flip orders endpoint.
// The ID is Flip's internal order identifier, distinct from the
// buyer order code used to look it up.
type FlipOrder struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// FlipOrdersResponse is the envelope of the Flip orders lookup
type FlipOrdersResponse struct {
	Data []FlipOrder `json:"data"`
}

// FlipCancelResponse is the envelope of the Flip order cancellation endpoint
type FlipCancelResponse struct {
	Data struct {
		Result string `json:"result"`
	} `json:"data"`
}
