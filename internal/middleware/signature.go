package middleware

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/pkg/logger"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
)

// SignatureHeader carries the provider's request signature.
const SignatureHeader = "X-Twilio-Signature"

const maxSignedBody = 1 << 20

// ProviderSignature verifies that webhook requests were signed with the
// account auth token. baseURL is the public base the provider was given; the
// request URI is appended to it to rebuild the signed URL.
//
// A request that fails verification is acknowledged with 200 and not passed
// on, so the provider does not retry it and nothing is persisted.
func ProviderSignature(authToken, baseURL string, log *logger.Logger) func(http.Handler) http.Handler {
	validator := client.NewRequestValidator(authToken)
	baseURL = strings.TrimRight(baseURL, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			signedURL := baseURL + r.URL.RequestURI()
			signature := r.Header.Get(SignatureHeader)

			var valid bool
			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if mediaType == "application/json" {
				valid = validator.ValidateBody(signedURL, body, signature)
			} else {
				valid = validator.Validate(signedURL, formParams(body), signature)
			}

			if !valid {
				log.Warn("webhook signature rejected",
					zap.String("path", r.URL.Path),
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Bool("signature_present", signature != ""),
				)
				metrics.RecordWebhook(r.URL.Path, "signature", "rejected")
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// formParams flattens a form body to the first value of each key.
func formParams(body []byte) map[string]string {
	params := map[string]string{}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return params
	}
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
