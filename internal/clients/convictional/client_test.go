package convictional

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-reconciler/internal/config"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.ConvictionalConfig{
		BaseURL:         serverURL,
		SearchPath:      "/orders/search",
		APIToken:        "test-token",
		WindowStartTime: "08:00:00.000Z",
		WindowEndTime:   "19:32:01.584Z",
	}, newTestLogger())
}

func TestFetchOrdersSinglePage(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"after":   r.URL.Query().Get("createdAt[after]"),
			"before":  r.URL.Query().Get("createdAt[before]"),
			"flagged": r.URL.Query().Get("filters[flagged]"),
			"auth":    r.Header.Get("Authorization"),
		}
		fmt.Fprint(w, `{"data":{"orders":[{"_id":"c-1","buyerOrderCode":"A1"}]},"has_more":false,"next":null}`)
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "c-1", orders[0].ID)
	assert.Equal(t, "2026-08-29T08:00:00.000Z", gotQuery["after"])
	assert.Equal(t, "2026-08-30T19:32:01.584Z", gotQuery["before"])
	assert.Equal(t, "true", gotQuery["flagged"])
	assert.Equal(t, "test-token", gotQuery["auth"])
}

func TestFetchOrdersConcatenatesPagesInOrder(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/search":
			fmt.Fprintf(w, `{"data":{"orders":[{"_id":"c-1"},{"_id":"c-2"}]},"has_more":true,"next":"%s/page2"}`, server.URL)
		case "/page2":
			// The next URL must be followed verbatim, without the
			// original query parameters re-attached.
			assert.Empty(t, r.URL.RawQuery)
			fmt.Fprint(w, `{"data":{"orders":[{"_id":"c-3"}]},"has_more":false}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "c-1", orders[0].ID)
	assert.Equal(t, "c-2", orders[1].ID)
	assert.Equal(t, "c-3", orders[2].ID)
}

func TestFetchOrdersKeepsEarlierPagesOnFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/search":
			fmt.Fprintf(w, `{"data":{"orders":[{"_id":"c-1"}]},"has_more":true,"next":"%s/page2"}`, server.URL)
		case "/page2":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.Error(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "c-1", orders[0].ID)
}

func TestFetchOrdersKeepsEarlierPagesOnDecodeFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/search":
			fmt.Fprintf(w, `{"data":{"orders":[{"_id":"c-1"}]},"has_more":true,"next":"%s/page2"}`, server.URL)
		case "/page2":
			fmt.Fprint(w, `{not json`)
		}
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.Error(t, err)
	assert.Len(t, orders, 1)
}

func TestFetchOrdersStopsOnErrorEnvelope(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"error":true,"data":{"orders":[{"_id":"c-1"}]},"has_more":true,"next":"http://example.invalid/page2"}`)
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 1, requests)
}

func TestFetchOrdersStopsWhenNextMissing(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"data":{"orders":[{"_id":"c-1"}]},"has_more":true}`)
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, requests)
}

func TestFetchOrdersEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"orders":[]},"has_more":false}`)
	}))
	defer server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFetchOrdersTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	orders, err := newTestClient(server.URL).FetchOrders(context.Background(), "2026-08-29", "2026-08-30", true)

	assert.Error(t, err)
	assert.Empty(t, orders)
}
