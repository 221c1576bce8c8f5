// Package config provides environment configuration for the call controller.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	StaticDir          string
	CORSAllowedOrigins []string

	// PublicBaseURL is the externally reachable base the provider calls back on.
	PublicBaseURL string

	// Provider credentials
	TwilioAccountSid   string
	TwilioAuthToken    string
	TwilioAPIKeySid    string
	TwilioAPIKeySecret string
	TwilioTwiMLAppSid  string

	// Call defaults
	FromNumber            string
	DefaultToNumber       string
	DefaultClientIdentity string

	// Transcription
	TranscriptionEngine   string
	TranscriptionLanguage string

	// Client access tokens
	TokenTTL time.Duration

	// Event log
	LogDir string

	// Webhook and operator security
	ValidateWebhookSignatures bool
	OperatorJWTSecret         string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS mirror
	NATSEnabled  bool
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// MirrorTimeout bounds each NATS or Kafka mirror append.
	MirrorTimeout time.Duration

	// Kafka mirror
	KafkaBrokers      []string
	KafkaTopicCalls   string
	KafkaTopicPartial string
	KafkaTopicFinal   string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3000"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		// Provider
		TwilioAccountSid:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioAPIKeySid:    getEnv("TWILIO_API_KEY_SID", ""),
		TwilioAPIKeySecret: getEnv("TWILIO_API_KEY_SECRET", ""),
		TwilioTwiMLAppSid:  getEnv("TWILIO_TWIML_APP_SID", ""),

		// Call defaults
		FromNumber:            getEnv("TWILIO_FROM_NUMBER", ""),
		DefaultToNumber:       getEnv("DEFAULT_TO_NUMBER", ""),
		DefaultClientIdentity: getEnv("DEFAULT_CLIENT_IDENTITY", "agent"),

		// Transcription
		TranscriptionEngine:   getEnv("TRANSCRIPTION_ENGINE", "google"),
		TranscriptionLanguage: getEnv("TRANSCRIPTION_LANGUAGE", "en-US"),

		// Tokens
		TokenTTL: getDurationEnv("TOKEN_TTL", time.Hour),

		// Event log
		LogDir: getEnv("LOG_DIR", "logs"),

		// Security
		ValidateWebhookSignatures: getBoolEnv("VALIDATE_WEBHOOK_SIGNATURES", false),
		OperatorJWTSecret:         getEnv("OPERATOR_JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSEnabled:  getBoolEnv("NATS_ENABLED", false),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		MirrorTimeout: getDurationEnv("MIRROR_TIMEOUT", 2*time.Second),

		// Kafka
		KafkaBrokers:      getListEnv("KAFKA_BROKERS"),
		KafkaTopicCalls:   getEnv("KAFKA_TOPIC_CALLS", "calls.events"),
		KafkaTopicPartial: getEnv("KAFKA_TOPIC_PARTIAL", "calls.transcript.partial"),
		KafkaTopicFinal:   getEnv("KAFKA_TOPIC_FINAL", "calls.transcript.final"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// ProviderConfigured reports whether outbound call control is possible.
func (c *Config) ProviderConfigured() bool {
	return c.TwilioAccountSid != "" && c.TwilioAuthToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
