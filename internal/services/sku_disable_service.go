package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients"
	"order-reconciler/internal/storage"
)

// Flagged messages that qualify an order for SKU disabling and
// cancellation. Matching is a case-insensitive substring check.
const (
	msgOutOfStock       = "item is out of stock unexpectedly"
	msgVariantComponent = "cannot be a variant with components"
)

// SKUDisableService disables the SKUs referenced by qualifying rows of
// the flagged orders file
type SKUDisableService struct {
	fulfillment clients.FulfillmentAPI
	store       *storage.CSVStore
	logger      *logrus.Logger
}

// NewSKUDisableService creates a new SKU disable service
func NewSKUDisableService(fulfillment clients.FulfillmentAPI, store *storage.CSVStore, logger *logrus.Logger) *SKUDisableService {
	return &SKUDisableService{
		fulfillment: fulfillment,
		store:       store,
		logger:      logger,
	}
}

// Run reads the flagged orders file and disables every SKU on rows
// whose flagged message matches one of the disable criteria. One token
// is obtained for the whole batch; per-SKU failures are logged and do
// not stop the pass.
func (s *SKUDisableService) Run(ctx context.Context, csvPath string) error {
	token, err := s.fulfillment.Token(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Could not get access token, skipping SKU disabling")
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

	for _, row := range rows {
		message := strings.ToLower(strings.TrimSpace(row["flagged_message"]))
		if !strings.Contains(message, msgOutOfStock) && !strings.Contains(message, msgVariantComponent) {
			s.logger.Info("Skipping row, flagged message does not meet disable criteria")
			continue
		}

		auditStatus := "connectivity"
		if strings.Contains(message, msgVariantComponent) {
			auditStatus = "unsupportedBundle"
		}

		for _, sku := range splitItemCodes(row["buyer_item_codes"]) {
			if err := s.fulfillment.DisableSKU(ctx, token, sku, auditStatus); err != nil {
				s.logger.WithFields(logrus.Fields{
					"sku":   sku,
					"error": err.Error(),
				}).Error("Failed to disable SKU")
			}
		}
	}

	return nil
}

// splitItemCodes splits a ";"-delimited buyer_item_codes field,
// dropping empty entries
func splitItemCodes(codes string) []string {
	var skus []string
	for _, sku := range strings.Split(codes, ";") {
		if sku = strings.TrimSpace(sku); sku != "" {
			skus = append(skus, sku)
		}
	}
	return skus
}
