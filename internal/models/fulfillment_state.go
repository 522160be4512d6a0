package models

import "fmt"

// StateKind discriminates how a fulfillment state was resolved
type StateKind int

const (
	// StateKnown means Flip returned an order with a non-empty state string
	StateKnown StateKind = iota
	// StateNotFound means Flip returned an order whose state field was empty
	StateNotFound
	// StateDataEmpty means Flip responded but the data list was empty
	StateDataEmpty
	// StateAPIError means the lookup failed with an HTTP status code
	StateAPIError
	// StateUnresolved means the lookup failed with no status code at all
	StateUnresolved
)

// FulfillmentState is the resolved state of an order on the Flip side.
// Sentinel outcomes (not found, empty data, API error) are values, not
// errors: they flow through the allow-list filter like any real state.
type FulfillmentState struct {
	Kind  StateKind
	State string
	Code  int
}

// KnownState wraps a state string reported by Flip
func KnownState(state string) FulfillmentState {
	return FulfillmentState{Kind: StateKnown, State: state}
}

// NotFoundState marks an order present in Flip with no state field
func NotFoundState() FulfillmentState {
	return FulfillmentState{Kind: StateNotFound}
}

// DataEmptyState marks a lookup that matched no Flip orders
func DataEmptyState() FulfillmentState {
	return FulfillmentState{Kind: StateDataEmpty}
}

// APIErrorState marks a lookup that failed with an HTTP status
func APIErrorState(code int) FulfillmentState {
	return FulfillmentState{Kind: StateAPIError, Code: code}
}

// UnresolvedState marks a lookup that failed without any status code
func UnresolvedState() FulfillmentState {
	return FulfillmentState{Kind: StateUnresolved}
}

// Label renders the state as the string persisted to the output file
// and compared against the allow-listed state.
func (s FulfillmentState) Label() string {
	switch s.Kind {
	case StateKnown:
		return s.State
	case StateNotFound:
		return "State Not Found"
	case StateDataEmpty:
		return "Flip Data Empty"
	case StateAPIError:
		return fmt.Sprintf("Flip API Error (%d)", s.Code)
	default:
		return "Error or Not Found"
	}
}

// ResolveState derives a FulfillmentState from a Flip lookup result.
// resp is nil when the lookup yielded no decodable payload; status is
// zero when no HTTP status was observed.
func ResolveState(resp *FlipOrdersResponse, status int) FulfillmentState {
	if resp != nil {
		if len(resp.Data) == 0 {
			return DataEmptyState()
		}
		if resp.Data[0].State == "" {
			return NotFoundState()
		}
		return KnownState(resp.Data[0].State)
	}
	if status != 0 {
		return APIErrorState(status)
	}
	return UnresolvedState()
}
