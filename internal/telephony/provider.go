// Package telephony wraps the telephony provider: outbound call control,
// call-flow markup and client access tokens.
package telephony

import (
	"context"
)

// Status callback events requested for outbound calls.
var StatusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

// CallRequest describes an outbound call.
type CallRequest struct {
	To                string
	From              string
	TwiMLURL          string
	StatusCallbackURL string
}

// Call is the provider's view of a created call.
type Call struct {
	Sid  string
	To   string
	From string
}

// Provider is the telephony provider API used by the call service.
type Provider interface {
	// CreateCall places an outbound call.
	CreateCall(ctx context.Context, req CallRequest) (*Call, error)

	// EndCall asks the provider to terminate a call.
	EndCall(ctx context.Context, callSid string) error
}
