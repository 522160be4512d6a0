package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients"
)

// soidOrderIDField is the Look result column carrying the buyer order
// code of an order missing its seller order identifier
const soidOrderIDField = "flip_orders_all.orderid"

// SOIDCancelService cancels Flip orders that a saved Looker query
// reports as missing a seller order identifier
type SOIDCancelService struct {
	reports     clients.ReportSource
	fulfillment clients.FulfillmentAPI
	lookID      string
	logger      *logrus.Logger
}

// NewSOIDCancelService creates a new SOID cancel service
func NewSOIDCancelService(reports clients.ReportSource, fulfillment clients.FulfillmentAPI, lookID string, logger *logrus.Logger) *SOIDCancelService {
	return &SOIDCancelService{
		reports:     reports,
		fulfillment: fulfillment,
		lookID:      lookID,
		logger:      logger,
	}
}

// Run fetches the saved look, extracts the buyer order codes and
// cancels each matching Flip order. A missing access token is fatal:
// no cancellation work is possible without it. Per-order failures are
// isolated and logged.
func (s *SOIDCancelService) Run(ctx context.Context) error {
	s.logger.Info("Starting process to fetch and cancel SOID orders")

	rows, err := s.reports.RunLook(ctx, s.lookID)
	if err != nil {
		return fmt.Errorf("failed to fetch look %s: %w", s.lookID, err)
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		code, _ := row[soidOrderIDField].(string)
		codes = append(codes, code)
	}
	s.logger.WithField("count", len(codes)).Info("Extracted buyer order codes from look data")

	token, err := s.fulfillment.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain Flip access token: %w", err)
	}
	s.logger.Info("Successfully obtained Flip access token")

	for _, code := range codes {
		if code == "" {
			s.logger.Warn("Encountered an empty buyer order code, skipping")
			continue
		}

		s.logger.WithField("buyerOrderCode", code).Info("Processing buyer order code")
		orderID, err := s.fulfillment.LookupOrder(ctx, token, code)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"buyerOrderCode": code,
				"error":          err.Error(),
			}).Warn("Lookup failed, no Flip order id found")
			continue
		}

		if err := s.fulfillment.CancelOrder(ctx, token, orderID); err != nil {
			s.logger.WithFields(logrus.Fields{
				"orderId": orderID,
				"error":   err.Error(),
			}).Error("Failed to cancel order")
		}
	}

	s.logger.Info("SOID order processing completed")
	return nil
}
