// Package main is the entry point for the call controller server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/config"
	"github.com/capitalize-ai/call-controller/internal/correlate"
	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/handler"
	natsclient "github.com/capitalize-ai/call-controller/internal/nats"
	"github.com/capitalize-ai/call-controller/internal/service"
	"github.com/capitalize-ai/call-controller/internal/telephony"
	"github.com/capitalize-ai/call-controller/pkg/logger"
	"github.com/capitalize-ai/call-controller/pkg/tracing"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var log *logger.Logger
	var err error
	if os.Getenv("ENV") == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting call controller")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "call-controller", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the event log
	fileLog, err := eventlog.OpenFileLog(cfg.LogDir)
	if err != nil {
		log.Fatal("failed to open event log", zap.String("dir", cfg.LogDir), zap.Error(err))
	}

	var mirrors []eventlog.Log

	// Optional JetStream mirror
	var natsClient *natsclient.Client
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		mirrors = append(mirrors, streamManager)
	}

	// Optional Kafka mirror
	if kafkaLog := eventlog.NewKafkaLog(eventlog.KafkaConfig{
		Brokers:      cfg.KafkaBrokers,
		TopicCalls:   cfg.KafkaTopicCalls,
		TopicPartial: cfg.KafkaTopicPartial,
		TopicFinal:   cfg.KafkaTopicFinal,
	}); kafkaLog != nil {
		log.Info("mirroring event log to Kafka", zap.Strings("brokers", cfg.KafkaBrokers))
		mirrors = append(mirrors, kafkaLog)
	}

	eventLog := eventlog.Tee(fileLog, mirrors...).WithMirrorTimeout(cfg.MirrorTimeout)
	recorder := eventlog.NewRecorder(eventLog, log)
	correlator := correlate.New(correlate.NewClock())

	// Telephony provider
	var provider telephony.Provider
	if cfg.ProviderConfigured() {
		provider = telephony.NewTwilio(cfg.TwilioAccountSid, cfg.TwilioAuthToken)
	} else {
		log.Warn("provider credentials not set, dial and hangup disabled")
	}
	tokenIssuer := telephony.NewTokenIssuer(telephony.TokenConfig{
		AccountSid:     cfg.TwilioAccountSid,
		APIKeySid:      cfg.TwilioAPIKeySid,
		APIKeySecret:   cfg.TwilioAPIKeySecret,
		ApplicationSid: cfg.TwilioTwiMLAppSid,
		TTL:            cfg.TokenTTL,
	})

	// Initialize services
	callSvc := service.NewCallService(provider, recorder, correlator, service.CallConfig{
		PublicBaseURL:         cfg.PublicBaseURL,
		FromNumber:            cfg.FromNumber,
		DefaultToNumber:       cfg.DefaultToNumber,
		DefaultClientIdentity: cfg.DefaultClientIdentity,
	}, log)
	webhookSvc := service.NewWebhookService(recorder, correlator, log)

	// Initialize handlers
	var pinger handler.Pinger
	if natsClient != nil {
		pinger = natsClient
	}
	healthHandler := handler.NewHealthHandler(pinger)
	callHandler := handler.NewCallHandler(callSvc, log)
	webhookHandler := handler.NewWebhookHandler(webhookSvc, service.InboundConfig{
		PublicBaseURL:         cfg.PublicBaseURL,
		DefaultClientIdentity: cfg.DefaultClientIdentity,
		TranscriptionEngine:   cfg.TranscriptionEngine,
		TranscriptionLanguage: cfg.TranscriptionLanguage,
	}, log)
	tokenHandler := handler.NewTokenHandler(tokenIssuer, cfg.DefaultClientIdentity, log)

	if cfg.ValidateWebhookSignatures && (cfg.TwilioAuthToken == "" || cfg.PublicBaseURL == "") {
		log.Fatal("webhook signature validation needs TWILIO_AUTH_TOKEN and PUBLIC_BASE_URL")
	}

	r := newRouter(cfg, handlers{
		health:   healthHandler,
		calls:    callHandler,
		webhooks: webhookHandler,
		tokens:   tokenHandler,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// In-flight appends have finished once Shutdown returns.
	if err := eventLog.Close(); err != nil {
		log.Error("failed to close event log", zap.Error(err))
	}

	log.Info("server stopped")
}
