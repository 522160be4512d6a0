package services

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"order-reconciler/internal/clients"
	"order-reconciler/internal/models"
)

// MockOrderSource is a mock implementation of clients.OrderSource
type MockOrderSource struct {
	mock.Mock
}

var _ clients.OrderSource = (*MockOrderSource)(nil)

func (m *MockOrderSource) FetchOrders(ctx context.Context, startDate, endDate string, flagged bool) ([]models.ConvictionalOrder, error) {
	args := m.Called(ctx, startDate, endDate, flagged)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConvictionalOrder), args.Error(1)
}

// MockFulfillmentAPI is a mock implementation of clients.FulfillmentAPI
type MockFulfillmentAPI struct {
	mock.Mock
}

var _ clients.FulfillmentAPI = (*MockFulfillmentAPI)(nil)

func (m *MockFulfillmentAPI) GetOrderStatus(ctx context.Context, buyerOrderCode string) (*models.FlipOrdersResponse, int) {
	args := m.Called(ctx, buyerOrderCode)
	if args.Get(0) == nil {
		return nil, args.Int(1)
	}
	return args.Get(0).(*models.FlipOrdersResponse), args.Int(1)
}

func (m *MockFulfillmentAPI) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockFulfillmentAPI) DisableSKU(ctx context.Context, token, sku, auditStatus string) error {
	args := m.Called(ctx, token, sku, auditStatus)
	return args.Error(0)
}

func (m *MockFulfillmentAPI) LookupOrder(ctx context.Context, token, buyerOrderCode string) (string, error) {
	args := m.Called(ctx, token, buyerOrderCode)
	return args.String(0), args.Error(1)
}

func (m *MockFulfillmentAPI) CancelOrder(ctx context.Context, token, orderID string) error {
	args := m.Called(ctx, token, orderID)
	return args.Error(0)
}

// MockReportSource is a mock implementation of clients.ReportSource
type MockReportSource struct {
	mock.Mock
}

var _ clients.ReportSource = (*MockReportSource)(nil)

func (m *MockReportSource) RunLook(ctx context.Context, lookID string) ([]map[string]interface{}, error) {
	args := m.Called(ctx, lookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
