package models

// ReconciledRowHeader is the header of the flagged orders output file.
// The downstream SKU-disable and cancellation passes read the file back
// by these column names.
var ReconciledRowHeader = []string{
	"convictional_order_id",
	"flagged_message",
	"buyer_order_code",
	"flip_order_state",
	"buyer_item_codes",
}

// ReconciledRow is one Convictional order cross-referenced with its
// Flip state, ready to be persisted
type ReconciledRow struct {
	ConvictionalOrderID string
	FlaggedMessage      string
	BuyerOrderCode      string
	FlipOrderState      string
	BuyerItemCodes      string
}

// CSVRecord renders the row in ReconciledRowHeader column order
func (r ReconciledRow) CSVRecord() []string {
	return []string{
		r.ConvictionalOrderID,
		r.FlaggedMessage,
		r.BuyerOrderCode,
		r.FlipOrderState,
		r.BuyerItemCodes,
	}
}
