package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gfontenele/quickshop/internal/email"
	"github.com/gfontenele/quickshop/internal/telemetry"
)

func main() {
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "quickshop-email", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	var sendClient *sendgrid.Client
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		sendClient = sendgrid.NewSendClient(key)
		logger.Info("sendgrid delivery enabled")
	} else {
		logger.Info("no SENDGRID_API_KEY set, simulating email delivery")
	}

	fromAddr := os.Getenv("EMAIL_FROM")
	if fromAddr == "" {
		fromAddr = "noreply@quickshop.com"
	}

	handler := email.NewHandler(sendClient, fromAddr, logger)

	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /send-confirmation", telemetry.WithHTTPRoute(handler.HandleSendConfirmation))
	mux.HandleFunc("GET /healthz", telemetry.WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).String(),
		})
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "email",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
	}

	go func() {
		logger.Info("email service listening", "port", port)
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
	}
}
