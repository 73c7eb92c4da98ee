package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"naboopay-gateway/internal/logger"
	"naboopay-gateway/internal/metrics"
	"naboopay-gateway/internal/order"
	"naboopay-gateway/internal/utils"

	"go.uber.org/zap"
)

const (
	createTransactionURL = "https://api.naboopay.com/api/v1/transaction/create-transaction"
	requestTimeout       = 30 * time.Second

	detailMissingCheckoutURL = "checkout_url missing"
)

type naboopayGateway struct {
	apiToken   string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// ----------------- Constructor -----------------

func NewNaboopayGateway(apiToken string, m *metrics.Metrics) Gateway {
	if apiToken == "" {
		logger.L().Warn("Naboopay API token is empty")
	}

	return &naboopayGateway{
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		metrics: m,
	}
}

// ----------------- CreateTransaction -----------------

func (n *naboopayGateway) CreateTransaction(
	ctx context.Context,
	req TransactionRequest,
	customer order.Contact,
) (*TransactionResponse, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("source", "naboopay"),
		zap.Int("items", len(req.Products)),
		zap.Strings("methods", req.MethodOfPayment),
	)
	timer := metrics.StartTimer()

	resp, err := n.createTransaction(ctx, log, req, customer)

	outcome := "success"
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		outcome = txErr.Kind.String()
	} else if err != nil {
		outcome = "error"
	}
	n.metrics.ObserveTransaction(outcome, timer.Duration())

	return resp, err
}

func (n *naboopayGateway) createTransaction(
	ctx context.Context,
	log *zap.Logger,
	req TransactionRequest,
	customer order.Contact,
) (*TransactionResponse, error) {

	jsonBody, err := json.Marshal(req)
	if err != nil {
		log.Error("Failed to marshal transaction request", zap.Error(err))
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, createTransactionURL, bytes.NewReader(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+n.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	log.Info("Sending transaction request to Naboopay")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Naboopay API network error", zap.Error(err))
		return nil, &TransactionError{Kind: KindNetwork, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return nil, &TransactionError{Kind: KindNetwork, Detail: err.Error(), Err: err}
	}

	log.Debug("Naboopay API response",
		zap.Int("http_status", resp.StatusCode),
		zap.ByteString("response", bodyBytes),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("Naboopay returned non-success status",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &TransactionError{Kind: KindServer, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var res naboopayResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding Naboopay response", zap.Error(err), zap.ByteString("response", bodyBytes))
		return nil, &TransactionError{Kind: KindInvalidResponse, Detail: err.Error(), Err: err}
	}

	if res.CheckoutURL == nil || *res.CheckoutURL == "" {
		log.Error("Invalid Naboopay response: checkout_url missing", zap.ByteString("response", bodyBytes))
		return nil, &TransactionError{Kind: KindInvalidResponse, Detail: detailMissingCheckoutURL}
	}

	out := &TransactionResponse{
		CheckoutURL: PrefillCheckoutURL(*res.CheckoutURL, customer),
		OrderID:     transactionID(res.OrderID),
	}

	log.Info("Naboopay transaction created",
		zap.String("naboopay_order_id", out.OrderID),
		zap.Int("http_status", resp.StatusCode),
		zap.String("message", res.Message),
	)

	return out, nil
}

// PrefillCheckoutURL appends the shopper's contact so the hosted checkout
// page opens with the form already filled in.
func PrefillCheckoutURL(checkoutURL string, customer order.Contact) string {
	params := fmt.Sprintf("prefilled=true&phone_number=%s&first_name=%s&last_name=%s",
		url.QueryEscape(utils.SanitizePhone(customer.Phone)),
		url.QueryEscape(customer.FirstName),
		url.QueryEscape(customer.LastName),
	)

	u, err := url.Parse(checkoutURL)
	if err != nil {
		sep := "?"
		if strings.Contains(checkoutURL, "?") {
			sep = "&"
		}
		return checkoutURL + sep + params
	}

	if u.RawQuery != "" {
		u.RawQuery += "&" + params
	} else {
		u.RawQuery = params
	}
	u.ForceQuery = false
	return u.String()
}
