package telephony

import (
	"context"
	"fmt"
	"net/http"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callStatusCompleted is the status that ends an in-progress call.
const callStatusCompleted = "completed"

// callsAPI is the subset of the Twilio REST client used here.
type callsAPI interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

// Twilio implements Provider with the Twilio REST API.
type Twilio struct {
	api callsAPI
}

// NewTwilio creates a Twilio provider from account credentials.
func NewTwilio(accountSid, authToken string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &Twilio{api: client.Api}
}

// CreateCall implements Provider. The TwiML URL is fetched with POST and
// status callbacks are delivered with POST.
func (t *Twilio) CreateCall(ctx context.Context, req CallRequest) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetUrl(req.TwiMLURL)
	params.SetMethod(http.MethodPost)
	params.SetStatusCallback(req.StatusCallbackURL)
	params.SetStatusCallbackMethod(http.MethodPost)
	params.SetStatusCallbackEvent(StatusCallbackEvents)

	resp, err := t.api.CreateCall(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	call := &Call{To: req.To, From: req.From}
	if resp.Sid != nil {
		call.Sid = *resp.Sid
	}
	if call.Sid == "" {
		return nil, fmt.Errorf("failed to create call: provider returned no call sid")
	}

	return call, nil
}

// EndCall implements Provider by moving the call to the completed status.
func (t *Twilio) EndCall(ctx context.Context, callSid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.UpdateCallParams{}
	params.SetStatus(callStatusCompleted)

	if _, err := t.api.UpdateCall(callSid, params); err != nil {
		return fmt.Errorf("failed to end call %s: %w", callSid, err)
	}
	return nil
}
