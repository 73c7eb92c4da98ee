package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"naboopay-gateway/internal/logger"
	"naboopay-gateway/internal/metrics"
	"naboopay-gateway/internal/order"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID int64) (*order.Record, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Record), args.Error(1)
}

func (m *MockOrderService) AttachTransaction(ctx context.Context, orderID int64, transactionID string) error {
	return m.Called(ctx, orderID, transactionID).Error(0)
}

func (m *MockOrderService) FindByTransaction(ctx context.Context, transactionID string) ([]int64, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockOrderService) MarkAsPaid(ctx context.Context, orderID int64, status order.Status, note string) error {
	return m.Called(ctx, orderID, status, note).Error(0)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID int64, status order.Status, note string) error {
	return m.Called(ctx, orderID, status, note).Error(0)
}

const secret = "whsec-test"

func signedRequest(body []byte, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/naboopay/v1/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", Sign(key, body))
	return req
}

func eventBody(orderID any, status any) []byte {
	b, _ := json.Marshal(map[string]any{"order_id": orderID, "transaction_status": status, "amount": 1200})
	return b
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_ServeHTTP(t *testing.T) {
	settings := Settings{Secret: secret, StatusAfterPayment: order.StatusProcessing}

	t.Run("Paid", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "nb-1").Return([]int64{12}, nil)
		orders.On("MarkAsPaid", mock.Anything, int64(12), order.StatusProcessing, notePaid).Return(nil)

		w := serve(h, signedRequest(eventBody("nb-1", "paid"), secret))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `"Webhook reçu"`, w.Body.String())
		orders.AssertExpectations(t)
	})

	t.Run("Cancel_AllMatchingOrders", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "nb-2").Return([]int64{3, 4}, nil)
		orders.On("UpdateStatus", mock.Anything, int64(3), order.StatusCancelled, noteCancel).Return(nil)
		orders.On("UpdateStatus", mock.Anything, int64(4), order.StatusCancelled, noteCancel).Return(nil)

		w := serve(h, signedRequest(eventBody("nb-2", "cancel"), secret))

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("UnknownStatus_NoTransition", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "nb-3").Return([]int64{5}, nil)

		w := serve(h, signedRequest(eventBody("nb-3", "refunded"), secret))

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "MarkAsPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NumericOrderID", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "987").Return([]int64{7}, nil)
		orders.On("UpdateStatus", mock.Anything, int64(7), order.StatusOnHold, notePartPaid).Return(nil)

		w := serve(h, signedRequest(eventBody(987, "part_paid"), secret))

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("UnconfiguredSecret", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, Settings{}, nil)

		w := serve(h, signedRequest(eventBody("nb-1", "paid"), secret))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		orders.AssertNotCalled(t, "FindByTransaction", mock.Anything, mock.Anything)
	})

	t.Run("UnconfiguredSecret_OversizedBody", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, Settings{}, nil)

		w := serve(h, signedRequest(bytes.Repeat([]byte("a"), maxBodyBytes+1), secret))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `"Clé secrète du webhook non configurée"`, w.Body.String())
	})

	t.Run("OversizedBody", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		w := serve(h, signedRequest(bytes.Repeat([]byte("a"), maxBodyBytes+1), secret))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingSignature", func(t *testing.T) {
		for _, body := range [][]byte{eventBody("nb-1", "paid"), []byte("not json")} {
			orders := new(MockOrderService)
			h := NewHandler(orders, settings, nil)

			req := httptest.NewRequest(http.MethodPost, "/naboopay/v1/webhook", bytes.NewReader(body))
			w := serve(h, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `"En-tête X-Signature manquant"`, w.Body.String())
		}
	})

	t.Run("UnderscoreHeader", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)
		body := eventBody("nb-1", "pending")

		orders.On("FindByTransaction", mock.Anything, "nb-1").Return([]int64{1}, nil)
		orders.On("UpdateStatus", mock.Anything, int64(1), order.StatusPending, notePending).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/naboopay/v1/webhook", bytes.NewReader(body))
		req.Header["x_signature"] = []string{Sign(secret, body)}
		w := serve(h, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		for _, body := range []string{`{"order_id":"nb-1"}`, `{"order_id":null,"transaction_status":"paid"}`, `[]`} {
			w := serve(h, signedRequest([]byte(body), secret))
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})

	t.Run("OrderNotFound", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "nb-x").Return([]int64{}, nil)

		w := serve(h, signedRequest(eventBody("nb-x", "paid"), secret))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewHandler(orders, settings, nil)

		orders.On("FindByTransaction", mock.Anything, "nb-1").Return([]int64{1, 2}, nil)
		orders.On("MarkAsPaid", mock.Anything, int64(1), order.StatusProcessing, notePaid).Return(errors.New("db down"))
		orders.On("MarkAsPaid", mock.Anything, int64(2), order.StatusProcessing, notePaid).Return(nil)

		w := serve(h, signedRequest(eventBody("nb-1", "paid"), secret))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		orders.AssertExpectations(t)
	})
}

func TestHandler_SignatureTampering(t *testing.T) {
	body := eventBody("nb-1", "paid")

	for i := range body {
		tampered := bytes.Clone(body)
		tampered[i] ^= 0x01

		orders := new(MockOrderService)
		h := NewHandler(orders, Settings{Secret: secret}, nil)

		req := httptest.NewRequest(http.MethodPost, "/naboopay/v1/webhook", bytes.NewReader(tampered))
		req.Header.Set("X-Signature", Sign(secret, body))
		w := serve(h, req)

		require.Equal(t, http.StatusForbidden, w.Code, "byte %d", i)
	}

	for i := range secret {
		key := []byte(secret)
		key[i] ^= 0x01

		orders := new(MockOrderService)
		h := NewHandler(orders, Settings{Secret: secret}, nil)

		w := serve(h, signedRequest(body, string(key)))

		require.Equal(t, http.StatusForbidden, w.Code, "secret byte %d", i)
	}
}

func TestHandler_ReplayIsIdempotent(t *testing.T) {
	orders := new(MockOrderService)
	h := NewHandler(orders, Settings{Secret: secret}, nil)
	body := eventBody("nb-1", "paid")

	orders.On("FindByTransaction", mock.Anything, "nb-1").Return([]int64{12}, nil)
	orders.On("MarkAsPaid", mock.Anything, int64(12), order.StatusCompleted, notePaid).Return(nil)

	for range 3 {
		w := serve(h, signedRequest(body, secret))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// The handler delegates idempotency to the store: the same call each time.
	orders.AssertNumberOfCalls(t, "MarkAsPaid", 3)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_MetricsAndLogs(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	defer logger.Replace(zap.New(core))()

	m := metrics.New(prometheus.NewRegistry())
	orders := new(MockOrderService)
	h := NewHandler(orders, Settings{Secret: secret}, m)

	req := httptest.NewRequest(http.MethodPost, "/naboopay/v1/webhook", bytes.NewReader(eventBody("nb-1", "paid")))
	req.Header.Set("X-Signature", "deadbeef")
	serve(h, req)

	serve(NewHandler(orders, Settings{}, m), signedRequest(eventBody("nb-1", "paid"), secret))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Webhooks.WithLabelValues("invalid_signature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Webhooks.WithLabelValues("config_error")))

	warn := observed.FilterMessage("Invalid webhook signature").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)

	cfg := observed.FilterMessage("Webhook secret key not configured").All()
	require.Len(t, cfg, 1)
	assert.Equal(t, zapcore.ErrorLevel, cfg[0].Level)
}
