package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovamx/storefront/internal/cart"
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/session"
	"github.com/renovamx/storefront/pkg/logger"
)

// memSnapshots is an in-memory SnapshotStore for handler tests.
type memSnapshots struct {
	data map[string][]domain.LineItem
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]domain.LineItem)}
}

func (m *memSnapshots) Load(_ context.Context, deviceID string) ([]domain.LineItem, error) {
	return m.data[deviceID], nil
}

func (m *memSnapshots) Save(_ context.Context, deviceID string, items []domain.LineItem) error {
	m.data[deviceID] = items
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, deviceID string) error {
	delete(m.data, deviceID)
	return nil
}

// memAccounts is an in-memory AccountStore for handler tests.
type memAccounts struct {
	data map[string][]domain.LineItem
}

func newMemAccounts() *memAccounts {
	return &memAccounts{data: make(map[string][]domain.LineItem)}
}

func (m *memAccounts) Fetch(_ context.Context, userID string) ([]domain.LineItem, error) {
	return m.data[userID], nil
}

func (m *memAccounts) Replace(_ context.Context, userID string, items []domain.LineItem) error {
	m.data[userID] = items
	return nil
}

func (m *memAccounts) Delete(_ context.Context, userID string) error {
	delete(m.data, userID)
	return nil
}

type nopEvents struct{}

func (nopEvents) PublishCartUpdated(context.Context, string, *domain.Cart) error { return nil }
func (nopEvents) PublishCartCleared(context.Context, string) error               { return nil }

func newCartRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewWithWriter("handler-test", "error", io.Discard)
	manager := cart.NewManager(newMemSnapshots(), newMemAccounts(), nopEvents{}, 99, log)
	h := NewCartHandler(manager, session.HeaderProvider{})
	return h.Routes()
}

type cartResponse struct {
	Data  cartView   `json:"data"`
	Error *errorBody `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, cartResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-Device-ID", "device-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestCartHandler_AddAndGet(t *testing.T) {
	h := newCartRouter(t)

	rec, resp := doJSON(t, h, http.MethodPost, "/items", addItemRequest{
		Item:     domain.LineItem{ID: "p1", Name: "Producto 1", Price: 100000},
		Quantity: 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, resp.Data.ItemCount)
	assert.Equal(t, int64(200000), resp.Data.Subtotal)

	rec, resp = doJSON(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "p1", resp.Data.Items[0].ID)
	assert.Equal(t, 2, resp.Data.Items[0].Quantity)
}

func TestCartHandler_AddWithoutIDRejected(t *testing.T) {
	h := newCartRouter(t)

	rec, resp := doJSON(t, h, http.MethodPost, "/items", addItemRequest{Quantity: 1})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestCartHandler_NegativeQuantityRejected(t *testing.T) {
	h := newCartRouter(t)

	rec, resp := doJSON(t, h, http.MethodPost, "/items", addItemRequest{
		Item: domain.LineItem{ID: "p1", Price: 100000}, Quantity: -2,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Fields, "Quantity")
}

func TestCartHandler_DecreaseAndRemove(t *testing.T) {
	h := newCartRouter(t)
	doJSON(t, h, http.MethodPost, "/items", addItemRequest{
		Item: domain.LineItem{ID: "p1", Price: 50000}, Quantity: 3,
	})

	_, resp := doJSON(t, h, http.MethodPost, "/items/p1/decrease", nil)
	assert.Equal(t, 2, resp.Data.ItemCount)

	_, resp = doJSON(t, h, http.MethodDelete, "/items/p1", nil)
	assert.Zero(t, resp.Data.ItemCount)
	assert.NotNil(t, resp.Data.Items, "an empty cart serializes as an empty array")
}

func TestCartHandler_Clear(t *testing.T) {
	h := newCartRouter(t)
	doJSON(t, h, http.MethodPost, "/items", addItemRequest{
		Item: domain.LineItem{ID: "p1", Price: 50000}, Quantity: 1,
	})

	rec, resp := doJSON(t, h, http.MethodDelete, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, resp.Data.ItemCount)
}

func TestCartHandler_MissingDeviceIDRejected(t *testing.T) {
	h := newCartRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
