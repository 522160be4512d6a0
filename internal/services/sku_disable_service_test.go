package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"order-reconciler/internal/models"
	"order-reconciler/internal/storage"
)

func writeFlaggedOrdersFile(t *testing.T, store *storage.CSVStore, rows [][]string) string {
	path := filepath.Join(t.TempDir(), "flagged_orders.csv")
	require.NoError(t, store.Write(path, models.ReconciledRowHeader, rows))
	return path
}

func TestSKUDisableRunDisablesQualifyingSKUs(t *testing.T) {
	fulfillment := new(MockFulfillmentAPI)
	store := storage.NewCSVStore(newTestLogger())
	path := writeFlaggedOrdersFile(t, store, [][]string{
		{"c-1", "Item is OUT of stock unexpectedly", "A1", "Created", "SKU-1; SKU-2"},
		{"c-2", "Some other message", "A2", "Created", "SKU-3"},
	})

	fulfillment.On("Token", mock.Anything).Return("tok", nil)
	fulfillment.On("DisableSKU", mock.Anything, "tok", "SKU-1", "connectivity").Return(nil)
	fulfillment.On("DisableSKU", mock.Anything, "tok", "SKU-2", "connectivity").Return(nil)

	svc := NewSKUDisableService(fulfillment, store, newTestLogger())
	require.NoError(t, svc.Run(context.Background(), path))

	fulfillment.AssertExpectations(t)
	fulfillment.AssertNumberOfCalls(t, "DisableSKU", 2)
}

func TestSKUDisableRunPicksUnsupportedBundleStatus(t *testing.T) {
	fulfillment := new(MockFulfillmentAPI)
	store := storage.NewCSVStore(newTestLogger())
	path := writeFlaggedOrdersFile(t, store, [][]string{
		{"c-1", "This item cannot be a Variant with Components", "A1", "Created", "SKU-1"},
	})

	fulfillment.On("Token", mock.Anything).Return("tok", nil)
	fulfillment.On("DisableSKU", mock.Anything, "tok", "SKU-1", "unsupportedBundle").Return(nil)

	svc := NewSKUDisableService(fulfillment, store, newTestLogger())
	require.NoError(t, svc.Run(context.Background(), path))

	fulfillment.AssertExpectations(t)
}

func TestSKUDisableRunContinuesPastPerSKUFailures(t *testing.T) {
	fulfillment := new(MockFulfillmentAPI)
	store := storage.NewCSVStore(newTestLogger())
	path := writeFlaggedOrdersFile(t, store, [][]string{
		{"c-1", "item is out of stock unexpectedly", "A1", "Created", "SKU-1; SKU-2"},
	})

	fulfillment.On("Token", mock.Anything).Return("tok", nil)
	fulfillment.On("DisableSKU", mock.Anything, "tok", "SKU-1", "connectivity").Return(fmt.Errorf("boom"))
	fulfillment.On("DisableSKU", mock.Anything, "tok", "SKU-2", "connectivity").Return(nil)

	svc := NewSKUDisableService(fulfillment, store, newTestLogger())
	require.NoError(t, svc.Run(context.Background(), path))

	fulfillment.AssertNumberOfCalls(t, "DisableSKU", 2)
}

func TestSKUDisableRunSkipsWhenTokenUnavailable(t *testing.T) {
	fulfillment := new(MockFulfillmentAPI)
	store := storage.NewCSVStore(newTestLogger())
	path := writeFlaggedOrdersFile(t, store, [][]string{
		{"c-1", "item is out of stock unexpectedly", "A1", "Created", "SKU-1"},
	})

	fulfillment.On("Token", mock.Anything).Return("", fmt.Errorf("no token"))

	svc := NewSKUDisableService(fulfillment, store, newTestLogger())
	require.NoError(t, svc.Run(context.Background(), path))

	fulfillment.AssertNotCalled(t, "DisableSKU", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSKUDisableRunHandlesMissingFile(t *testing.T) {
	fulfillment := new(MockFulfillmentAPI)
	store := storage.NewCSVStore(newTestLogger())

	fulfillment.On("Token", mock.Anything).Return("tok", nil)

	svc := NewSKUDisableService(fulfillment, store, newTestLogger())
	require.NoError(t, svc.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv")))

	fulfillment.AssertNotCalled(t, "DisableSKU", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
