package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"lead-intake/internal/api"
	"lead-intake/internal/auth"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/lead"
	"lead-intake/internal/session"
	"lead-intake/internal/steps/collateral"
	"lead-intake/internal/steps/documents"
	"lead-intake/internal/steps/identity"
	"lead-intake/internal/steps/leadinfo"
	"lead-intake/internal/steps/loanrequirement"
	"lead-intake/internal/steps/loanterms"
	"lead-intake/internal/steps/review"
	"lead-intake/internal/wizard"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func initTracing(cfg config.TracingConfig, log *zap.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	if err != nil {
		log.Warn("failed to create Jaeger exporter, tracing disabled", zap.Error(err))
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("lead-intake"),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting lead intake service",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	shutdownTracing := initTracing(cfg.Tracing, zapLog)
	defer shutdownTracing()

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		zapLog.Fatal("failed to create redis client", zap.Error(err))
	}
	defer rdb.Close()

	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rdb.Ping(ctx)
	}, 5, time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("redis unavailable", zap.Error(err))
	}

	gw := gateway.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout(), log)

	sessionTTL := cfg.Session.TTL()
	sessions := session.NewStore(rdb, sessionTTL, log)
	leads := lead.NewStore(rdb, sessionTTL, log)
	flow := auth.NewFlow(sessions, gw, cfg.Auth.ResendCooldown(), log)
	controller := wizard.NewController(leads, log)

	steps := api.StepHandlers{
		Identity:        identity.NewHandler(controller, log),
		LeadInfo:        leadinfo.NewHandler(controller, log),
		LoanRequirement: loanrequirement.NewHandler(controller, leads, sessions, gw, log),
		Collateral:      collateral.NewHandler(controller, log),
		LoanTerms:       loanterms.NewHandler(controller, log),
		Documents:       documents.NewHandler(controller, log),
		Review:          review.NewHandler(controller, leads, sessions, gw, log),
	}

	handlers := api.NewHandlers(flow, leads, controller, steps, log)
	router := api.NewRouter(handlers, sessions)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
}
