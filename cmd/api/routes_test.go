package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/call-controller/internal/config"
	"github.com/capitalize-ai/call-controller/internal/correlate"
	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/handler"
	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/service"
	"github.com/capitalize-ai/call-controller/internal/telephony"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

const operatorSecret = "operator-secret"

type stubProvider struct{}

func (stubProvider) CreateCall(_ context.Context, req telephony.CallRequest) (*telephony.Call, error) {
	return &telephony.Call{Sid: "CA1", To: req.To, From: req.From}, nil
}

func (stubProvider) EndCall(context.Context, string) error { return nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		PublicBaseURL:     "https://calls.example.test",
		OperatorJWTSecret: operatorSecret,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}

	log := logger.NewNop()
	recorder := eventlog.NewRecorder(eventlog.NewMemoryLog(), log)
	correlator := correlate.New(nil)
	callSvc := service.NewCallService(stubProvider{}, recorder, correlator, service.CallConfig{
		PublicBaseURL:   cfg.PublicBaseURL,
		FromNumber:      "+15550000",
		DefaultToNumber: "+15551111",
	}, log)
	issuer := telephony.NewTokenIssuer(telephony.TokenConfig{AccountSid: "AC1", APIKeySid: "SK1", APIKeySecret: "secret"})

	return newRouter(cfg, handlers{
		health:   handler.NewHealthHandler(nil),
		calls:    handler.NewCallHandler(callSvc, log),
		webhooks: handler.NewWebhookHandler(service.NewWebhookService(recorder, correlator, log), service.InboundConfig{}, log),
		tokens:   handler.NewTokenHandler(issuer, "agent", log),
	}, log)
}

func bearer(t *testing.T, scopes ...string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: scopes,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(operatorSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func TestRouter_OperatorScopes(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		status int
	}{
		{"dial without token", http.MethodPost, "/dial", `{}`, "", http.StatusUnauthorized},
		{"dial without scope", http.MethodPost, "/dial", `{}`, bearer(t, middleware.ScopeTokensIssue), http.StatusForbidden},
		{"dial with scope", http.MethodPost, "/dial", `{}`, bearer(t, middleware.ScopeCallsWrite), http.StatusOK},
		{"hangup without scope", http.MethodPost, "/hangup", `{"callSid":"CA1"}`, bearer(t), http.StatusForbidden},
		{"hangup with scope", http.MethodPost, "/hangup", `{"callSid":"CA1"}`, bearer(t, middleware.ScopeCallsWrite), http.StatusOK},
		{"token without scope", http.MethodGet, "/token", "", bearer(t, middleware.ScopeCallsWrite), http.StatusForbidden},
		{"token with scope", http.MethodGet, "/token", "", bearer(t, middleware.ScopeTokensIssue), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestRouter_WebhooksNeedNoOperatorToken(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{service.PathTranscriptionEvents, service.PathStatusEvents} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}
