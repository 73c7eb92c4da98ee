package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"naboopay-gateway/internal/config"
	"naboopay-gateway/internal/db"
	"naboopay-gateway/internal/logger"
	"naboopay-gateway/internal/metrics"
	"naboopay-gateway/internal/middleware"
	"naboopay-gateway/internal/order"
	"naboopay-gateway/internal/payment"
	"naboopay-gateway/internal/payment/webhook"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("naboopay gateway listening",
		zap.String("addr", srv.Addr),
		zap.String("webhook_url", cfg.WebhookURL()),
	)
	return startServerFunc(ctx, srv)
}

// newServer wires the order store, the Naboopay client and the HTTP handlers.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	orderSvc := order.NewService(order.NewRepository(database))
	gateway := payment.NewNaboopayGateway(cfg.Naboopay.APIToken, m)

	checkoutSvc := payment.NewCheckoutService(orderSvc, gateway, payment.CheckoutSettings{
		Decimals:         cfg.Naboopay.PriceDecimals,
		Methods:          cfg.Naboopay.Methods,
		FeesCustomerSide: cfg.Naboopay.FeesCustomerSide,
		OrderReceivedURL: cfg.OrderReceivedURL,
		CheckoutURL:      cfg.CheckoutURL(),
	})
	checkoutHandler := payment.NewHandler(checkoutSvc)

	webhookHandler := webhook.NewHandler(orderSvc, webhook.Settings{
		Secret:             cfg.Naboopay.WebhookSecret,
		StatusAfterPayment: order.Status(cfg.Naboopay.StatusAfterPayment),
	}, m)

	router := setupRouter(
		checkoutHandler.CheckoutHandler,
		webhookHandler,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	)

	limiter := middleware.NewRateLimiter(ctx)
	return logger.RequestIDMiddleware(logger.LoggingMiddleware(limiter.Middleware(router)))
}

func setupRouter(checkout http.HandlerFunc, webhookHandler http.Handler, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("POST /naboopay/v1/checkout/{orderID}", checkout)
	mux.Handle("POST /naboopay/v1/webhook", webhookHandler)

	return mux
}

// startServer serves until ctx is cancelled, then drains in-flight requests.
func startServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
