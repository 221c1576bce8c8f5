package config

import (
	"testing"
	"time"
)

var envVars = []string{
	"PORT", "PUBLIC_BASE_URL", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN",
	"TWILIO_FROM_NUMBER", "DEFAULT_TO_NUMBER", "DEFAULT_CLIENT_IDENTITY",
	"TRANSCRIPTION_ENGINE", "TRANSCRIPTION_LANGUAGE", "TOKEN_TTL", "LOG_DIR",
	"VALIDATE_WEBHOOK_SIGNATURES", "RATE_LIMIT_REQUESTS", "KAFKA_BROKERS",
	"NATS_ENABLED", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "MIRROR_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ServerPort != "3000" {
		t.Errorf("expected default port '3000', got %s", cfg.ServerPort)
	}
	if cfg.DefaultClientIdentity != "agent" {
		t.Errorf("expected default identity 'agent', got %s", cfg.DefaultClientIdentity)
	}
	if cfg.TranscriptionEngine != "google" || cfg.TranscriptionLanguage != "en-US" {
		t.Errorf("unexpected transcription defaults %s/%s", cfg.TranscriptionEngine, cfg.TranscriptionLanguage)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected default token TTL 1h, got %v", cfg.TokenTTL)
	}
	if cfg.MirrorTimeout != 2*time.Second {
		t.Errorf("expected default mirror timeout 2s, got %v", cfg.MirrorTimeout)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("expected default log dir 'logs', got %s", cfg.LogDir)
	}
	if cfg.ValidateWebhookSignatures {
		t.Error("expected signature validation off by default")
	}
	if cfg.NATSEnabled {
		t.Error("expected NATS disabled by default")
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("expected no Kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.ProviderConfigured() {
		t.Error("expected provider to be unconfigured without credentials")
	}
	if cfg.PublicBaseURL != "" {
		t.Errorf("expected empty base URL, got %s", cfg.PublicBaseURL)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("PUBLIC_BASE_URL", "https://calls.example.test/")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001")
	t.Setenv("DEFAULT_TO_NUMBER", "+15550002")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("VALIDATE_WEBHOOK_SIGNATURES", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("NATS_ENABLED", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://console.example.test")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.PublicBaseURL != "https://calls.example.test" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if !cfg.ProviderConfigured() {
		t.Error("expected provider to be configured")
	}
	if cfg.FromNumber != "+15550001" || cfg.DefaultToNumber != "+15550002" {
		t.Errorf("unexpected numbers %s/%s", cfg.FromNumber, cfg.DefaultToNumber)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("expected 15m TTL, got %v", cfg.TokenTTL)
	}
	if !cfg.ValidateWebhookSignatures || !cfg.NATSEnabled {
		t.Error("expected boolean flags to be parsed")
	}
	if cfg.RateLimitRequests != 5 {
		t.Errorf("expected 5 requests, got %d", cfg.RateLimitRequests)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://console.example.test" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("RATE_LIMIT_REQUESTS", "lots")
	t.Setenv("VALIDATE_WEBHOOK_SIGNATURES", "maybe")

	cfg := Load()

	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected fallback TTL, got %v", cfg.TokenTTL)
	}
	if cfg.RateLimitRequests != 60 {
		t.Errorf("expected fallback rate limit, got %d", cfg.RateLimitRequests)
	}
	if cfg.ValidateWebhookSignatures {
		t.Error("expected fallback false")
	}
}
