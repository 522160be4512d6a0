package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients"
	"order-reconciler/internal/storage"
)

// OrderCancelService cancels the Flip orders referenced by qualifying
// rows of the flagged orders file
type OrderCancelService struct {
	fulfillment clients.FulfillmentAPI
	store       *storage.CSVStore
	logger      *logrus.Logger
}

// NewOrderCancelService creates a new order cancel service
func NewOrderCancelService(fulfillment clients.FulfillmentAPI, store *storage.CSVStore, logger *logrus.Logger) *OrderCancelService {
	return &OrderCancelService{
		fulfillment: fulfillment,
		store:       store,
		logger:      logger,
	}
}

// Run reads the flagged orders file and cancels, row by row, the Flip
// orders whose flagged message matches the cancellation criteria.
// Lookup and cancellation failures are isolated per row.
func (s *OrderCancelService) Run(ctx context.Context, csvPath string) error {
	token, err := s.fulfillment.Token(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to retrieve access token, skipping order cancellation")
		return nil
	}

	rows, err := s.store.Read(csvPath)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"path":  csvPath,
			"error": err.Error(),
		}).Error("Failed to read flagged orders file")
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"path": csvPath,
		"rows": len(rows),
	}).Info("Read flagged orders file")

	for i, row := range rows {
		message := strings.ToLower(strings.TrimSpace(row["flagged_message"]))
		if !strings.Contains(message, msgOutOfStock) && !strings.Contains(message, msgVariantComponent) {
			s.logger.WithField("row", i).Info("Skipping cancellation, flagged message does not meet criteria")
			continue
		}

		buyerOrderCode := strings.TrimSpace(row["buyer_order_code"])
		if buyerOrderCode == "" {
			s.logger.WithField("row", i).Error("No buyer_order_code found in row, skipping")
			continue
		}

		orderID, err := s.fulfillment.LookupOrder(ctx, token, buyerOrderCode)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"buyerOrderCode": buyerOrderCode,
				"error":          err.Error(),
			}).Error("Skipping cancellation, no order id found")
			continue
		}

		if err := s.fulfillment.CancelOrder(ctx, token, orderID); err != nil {
			s.logger.WithFields(logrus.Fields{
				"orderId": orderID,
				"error":   err.Error(),
			}).Error("Failed to cancel order")
		}
	}

	return nil
}
