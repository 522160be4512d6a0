package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients"
	"order-reconciler/internal/config"
	"order-reconciler/internal/models"
	"order-reconciler/internal/storage"
)

// ReconcileService cross-references flagged Convictional orders with
// their Flip fulfillment state and persists the rows whose state
// matches the allow-listed value
type ReconcileService struct {
	orders      clients.OrderSource
	fulfillment clients.FulfillmentAPI
	store       *storage.CSVStore
	cfg         config.PipelineConfig
	logger      *logrus.Logger
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(orders clients.OrderSource, fulfillment clients.FulfillmentAPI, store *storage.CSVStore, cfg config.PipelineConfig, logger *logrus.Logger) *ReconcileService {
	return &ReconcileService{
		orders:      orders,
		fulfillment: fulfillment,
		store:       store,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run fetches flagged orders for the given date window, reconciles each
// against Flip, and overwrites the output file with the qualifying
// rows. When no rows qualify and an output file already exists it is
// reset to header-only so downstream passes never act on stale data.
func (s *ReconcileService) Run(ctx context.Context, startDate, endDate string) error {
	s.logger.WithFields(logrus.Fields{
		"startDate": startDate,
		"endDate":   endDate,
	}).Info("Starting processing of flagged orders")

	flaggedOrders, err := s.orders.FetchOrders(ctx, startDate, endDate, true)
	if err != nil {
		// Pagination failures are partial: whatever was accumulated
		// before the failure is still processed.
		s.logger.WithField("error", err.Error()).Error("Order fetch ended early")
	}
	if len(flaggedOrders) == 0 {
		s.logger.Info("No flagged orders fetched for this date range")
		return nil
	}

	rows := s.reconcile(ctx, flaggedOrders)

	if len(rows) == 0 {
		s.logger.Info("No flagged orders met the required Flip state criteria")
		if s.store.Exists(s.cfg.OutputPath) {
			if err := s.store.Reset(s.cfg.OutputPath, models.ReconciledRowHeader); err != nil {
				return err
			}
			s.logger.WithField("path", s.cfg.OutputPath).Info("Cleared existing output file")
		}
		return nil
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.CSVRecord())
	}
	return s.store.Write(s.cfg.OutputPath, models.ReconciledRowHeader, records)
}

// reconcile maps each flagged order to a ReconciledRow and keeps the
// rows whose Flip state matches the allow-listed value. Input order is
// preserved and duplicate buyer order codes are not collapsed.
func (s *ReconcileService) reconcile(ctx context.Context, orders []models.ConvictionalOrder) []models.ReconciledRow {
	var rows []models.ReconciledRow

	for _, order := range orders {
		if order.BuyerOrderCode == "" {
			s.logger.WithField("orderId", order.ID).Warn("Skipping Convictional order: missing buyerOrderCode")
			continue
		}

		itemCodes := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			if item.BuyerItemCode != "" {
				itemCodes = append(itemCodes, item.BuyerItemCode)
			}
		}

		s.logger.WithFields(logrus.Fields{
			"orderId":        order.ID,
			"buyerOrderCode": order.BuyerOrderCode,
		}).Info("Getting Flip status for Convictional order")

		payload, status := s.fulfillment.GetOrderStatus(ctx, order.BuyerOrderCode)
		state := models.ResolveState(payload, status)
		if state.Kind != models.StateKnown {
			s.logger.WithFields(logrus.Fields{
				"buyerOrderCode": order.BuyerOrderCode,
				"state":          state.Label(),
				"httpStatus":     status,
			}).Warn("Flip state did not resolve to a reported order state")
		}

		if state.Label() != s.cfg.AllowedFlipState {
			s.logger.WithFields(logrus.Fields{
				"orderId":      order.ID,
				"flipState":    state.Label(),
				"allowedState": s.cfg.AllowedFlipState,
			}).Info("Order skipped, Flip state not allow-listed")
			continue
		}

		rows = append(rows, models.ReconciledRow{
			ConvictionalOrderID: order.ID,
			FlaggedMessage:      order.FlaggedMessage,
			BuyerOrderCode:      order.BuyerOrderCode,
			FlipOrderState:      state.Label(),
			BuyerItemCodes:      strings.Join(itemCodes, "; "),
		})
		s.logger.WithFields(logrus.Fields{
			"orderId":   order.ID,
			"flipState": state.Label(),
		}).Info("Order matched allow-listed state and will be saved")
	}

	return rows
}
