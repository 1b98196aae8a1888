package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/pkg/logger"
)

func testRequest() *Request {
	return &Request{
		Customer:      domain.CustomerInfo{FullName: "María García", Email: "maria@example.com", Phone: "5512345678"},
		Shipping:      domain.ShippingInfo{Address: "Calle 1", City: "CDMX", State: "CDMX", PostalCode: "03100"},
		Items:         []domain.LineItem{{ID: "p1", Price: 100000, Quantity: 1}},
		Totals:        Totals{Subtotal: 100000, Shipping: 9900, Total: 109900},
		PaymentMethod: domain.MethodTransferencia,
		UserID:        "user-001",
	}
}

func newTestSubmitter(url string) *HTTPSubmitter {
	log := logger.NewWithWriter("order-test", "error", io.Discard)
	return NewHTTPSubmitter(url, 5*time.Second, log)
}

func TestHTTPSubmitter_Submit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		assert.Equal(t, "user-001", r.Header.Get("X-User-ID"))

		var got Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, int64(109900), got.Totals.Total)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"number":"ORD-001","total":109900},"payment":{"reference_number":"REF-77"}}`))
	}))
	defer srv.Close()

	result, err := newTestSubmitter(srv.URL).Submit(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "ORD-001", result.Order.Number)
	assert.Equal(t, int64(109900), result.Order.Total)
	assert.Equal(t, "REF-77", result.Payment.ReferenceNumber)
}

func TestHTTPSubmitter_Submit_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"token expired"}}`, KindUnauthorized, "token expired"},
		{"forbidden", http.StatusForbidden, `{}`, KindUnauthorized, "el servicio de pedidos respondió 403"},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"Producto agotado"}}`, KindValidation, "Producto agotado"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"error":{"message":"Dirección inválida"}}`, KindValidation, "Dirección inválida"},
		{"server error", http.StatusInternalServerError, `not even json`, KindUnknown, "el servicio de pedidos respondió 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestSubmitter(srv.URL).Submit(context.Background(), testRequest())

			var serr *SubmitError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.kind, serr.Kind)
			assert.Equal(t, tt.msg, serr.Message)
		})
	}
}

func TestHTTPSubmitter_Submit_TransportErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestSubmitter(srv.URL).Submit(context.Background(), testRequest())

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindNetwork, serr.Kind)
}

func TestHTTPSubmitter_Submit_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestSubmitter(srv.URL).Submit(context.Background(), testRequest())

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindUnknown, serr.Kind)
}
