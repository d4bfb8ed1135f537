package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gfontenele/quickshop/internal/cart"
	"github.com/gfontenele/quickshop/internal/catalog"
	"github.com/gfontenele/quickshop/internal/checkout"
	"github.com/gfontenele/quickshop/internal/gateway"
	"github.com/gfontenele/quickshop/internal/ledger"
	"github.com/gfontenele/quickshop/internal/messaging"
	"github.com/gfontenele/quickshop/internal/payment"
	"github.com/gfontenele/quickshop/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	startedAt := time.Now()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "quickshop-server", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("quickshop-server", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		logger.Error("STRIPE_SECRET_KEY environment variable is required")
		os.Exit(1)
	}
	stripeURL := os.Getenv("STRIPE_API_URL")
	if stripeURL == "" {
		stripeURL = "https://api.stripe.com"
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var log ledger.Log
	if path := os.Getenv("TRANSACTIONS_FILE"); path != "" {
		log = ledger.NewFileLog(path)
		logger.Info("using file-backed transaction log", "path", path)
	} else {
		log = ledger.NewPostgresLog(db)
	}

	metrics, err := telemetry.NewCheckoutMetrics()
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer = messaging.NewProducer(strings.Split(kafkaBrokers, ","), checkout.TopicTransactionRecorded)
		defer func() { _ = producer.Close() }()
	}

	var notifier checkout.Notifier
	if emailServiceURL := os.Getenv("EMAIL_SERVICE_URL"); emailServiceURL != "" && producer == nil {
		notifier = checkout.NewEmailNotifier(emailServiceURL, httpClient)
	}

	carts := cart.NewStore("usd")
	products := catalog.NewProductRepository(db)
	stripeClient := gateway.NewStripeClient(stripeURL, stripeKey, httpClient)
	payments := payment.NewOrchestrator(stripeClient, log, metrics, logger)
	flow := checkout.NewOrchestrator(carts, products, payments, producer, notifier, logger)

	catalogHandler := catalog.NewHandler(products, logger)
	cartHandler := cart.NewHandler(carts, products, logger)
	checkoutHandler := checkout.NewHandler(flow, log, os.Getenv("STRIPE_PUBLISHABLE_KEY"), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleGet))
	mux.HandleFunc("GET /cart/{sessionId}", telemetry.WithHTTPRoute(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/{sessionId}/add", telemetry.WithHTTPRoute(cartHandler.HandleAdd))
	mux.HandleFunc("PUT /cart/{sessionId}/update/{productId}", telemetry.WithHTTPRoute(cartHandler.HandleUpdate))
	mux.HandleFunc("DELETE /cart/{sessionId}/remove/{productId}", telemetry.WithHTTPRoute(cartHandler.HandleRemove))
	mux.HandleFunc("DELETE /cart/{sessionId}/clear", telemetry.WithHTTPRoute(cartHandler.HandleClear))
	mux.HandleFunc("POST /payment/create-payment-intent", telemetry.WithHTTPRoute(checkoutHandler.HandleCreateIntent))
	mux.HandleFunc("POST /payment/confirm-payment", telemetry.WithHTTPRoute(checkoutHandler.HandleConfirm))
	mux.HandleFunc("GET /payment/transaction/{transactionId}", telemetry.WithHTTPRoute(checkoutHandler.HandleGetTransaction))
	mux.HandleFunc("GET /payment/transactions", telemetry.WithHTTPRoute(checkoutHandler.HandleListTransactions))
	mux.HandleFunc("GET /payment/config", telemetry.WithHTTPRoute(checkoutHandler.HandleConfig))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).Seconds(),
		})
	})

	clientOrigin := os.Getenv("CLIENT_ORIGIN")
	if clientOrigin == "" {
		clientOrigin = "http://localhost:3000"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(withCORS(mux, clientOrigin), "quickshop-server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting quickshop server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
