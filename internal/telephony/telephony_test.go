package telephony

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCallsAPI struct {
	created   *openapi.CreateCallParams
	updated   *openapi.UpdateCallParams
	updateSid string
	sid       string
	err       error
}

func (f *fakeCallsAPI) CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	sid := f.sid
	return &openapi.ApiV2010Call{Sid: &sid}, nil
}

func (f *fakeCallsAPI) UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error) {
	f.updateSid = sid
	f.updated = params
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Call{Sid: &sid}, nil
}

func TestTwilio_CreateCall(t *testing.T) {
	api := &fakeCallsAPI{sid: "CA123"}
	p := &Twilio{api: api}

	call, err := p.CreateCall(context.Background(), CallRequest{
		To:                "+15550001",
		From:              "+15550002",
		TwiMLURL:          "https://example.test/twiml/inbound?client=agent",
		StatusCallbackURL: "https://example.test/status-events",
	})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}

	if call.Sid != "CA123" || call.To != "+15550001" || call.From != "+15550002" {
		t.Errorf("unexpected call %+v", call)
	}
	if *api.created.Url != "https://example.test/twiml/inbound?client=agent" {
		t.Errorf("unexpected TwiML url %q", *api.created.Url)
	}
	if *api.created.StatusCallback != "https://example.test/status-events" {
		t.Errorf("unexpected status callback %q", *api.created.StatusCallback)
	}
	if got := strings.Join(*api.created.StatusCallbackEvent, ","); got != "initiated,ringing,answered,completed" {
		t.Errorf("unexpected callback events %q", got)
	}
}

func TestTwilio_CreateCallErrors(t *testing.T) {
	p := &Twilio{api: &fakeCallsAPI{err: errors.New("invalid number")}}
	if _, err := p.CreateCall(context.Background(), CallRequest{}); err == nil || !strings.Contains(err.Error(), "invalid number") {
		t.Errorf("expected provider error, got %v", err)
	}

	p = &Twilio{api: &fakeCallsAPI{}}
	if _, err := p.CreateCall(context.Background(), CallRequest{}); err == nil {
		t.Error("expected error when provider returns no sid")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.CreateCall(ctx, CallRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTwilio_EndCall(t *testing.T) {
	api := &fakeCallsAPI{}
	p := &Twilio{api: api}

	if err := p.EndCall(context.Background(), "CA9"); err != nil {
		t.Fatalf("EndCall: %v", err)
	}
	if api.updateSid != "CA9" || *api.updated.Status != "completed" {
		t.Errorf("unexpected update sid=%s status=%v", api.updateSid, api.updated.Status)
	}

	api.err = errors.New("not found")
	if err := p.EndCall(context.Background(), "CA9"); err == nil {
		t.Error("expected error")
	}
}

func TestInboundTwiML(t *testing.T) {
	body, err := InboundTwiML(InboundOptions{
		TranscriptionCallbackURL: "https://example.test/transcription-events",
		TranscriptionEngine:      "google",
		LanguageCode:             "en-US",
		ClientIdentity:           "agent&co",
	})
	if err != nil {
		t.Fatalf("InboundTwiML: %v", err)
	}

	doc := string(body)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<Response><Start><Transcription `,
		`statusCallbackUrl="https://example.test/transcription-events"`,
		`track="both_tracks"`,
		`transcriptionEngine="google"`,
		`languageCode="en-US"`,
		`partialResults="true"`,
		`<Dial><Client>agent&amp;co</Client></Dial></Response>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected TwiML to contain %q, got %s", want, doc)
		}
	}

	if strings.Index(doc, "<Start>") > strings.Index(doc, "<Dial>") {
		t.Error("transcription must start before dialing")
	}

	var parsed struct {
		Dial struct {
			Client string `xml:"Client"`
		} `xml:"Dial"`
	}
	if err := xml.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("TwiML is not valid XML: %v", err)
	}
	if parsed.Dial.Client != "agent&co" {
		t.Errorf("expected client identity round trip, got %q", parsed.Dial.Client)
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{
		AccountSid:     "AC1",
		APIKeySid:      "SK1",
		APIKeySecret:   "secret",
		ApplicationSid: "AP1",
		TTL:            10 * time.Minute,
	})

	signed, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not verify: %v", err)
	}

	if token.Header["cty"] != "twilio-fpa;v=1" {
		t.Errorf("unexpected cty header %v", token.Header["cty"])
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || time.Until(exp.Time) > 10*time.Minute+time.Second {
		t.Errorf("unexpected expiry %v (%v)", exp, err)
	}
	if claims["iss"] != "SK1" || claims["sub"] != "AC1" {
		t.Errorf("unexpected issuer/subject %v/%v", claims["iss"], claims["sub"])
	}

	grants, ok := claims["grants"].(map[string]any)
	if !ok {
		t.Fatalf("missing grants: %v", claims)
	}
	if grants["identity"] != "alice" {
		t.Errorf("unexpected identity %v", grants["identity"])
	}
	voice := grants["voice"].(map[string]any)
	outgoing := voice["outgoing"].(map[string]any)
	if outgoing["application_sid"] != "AP1" {
		t.Errorf("unexpected outgoing grant %v", outgoing)
	}
}

func TestTokenIssuer_NotConfigured(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{AccountSid: "AC1"})
	if issuer.Configured() {
		t.Error("expected issuer to be unconfigured")
	}
	if _, err := issuer.Issue("alice"); !errors.Is(err, ErrTokenNotConfigured) {
		t.Errorf("expected ErrTokenNotConfigured, got %v", err)
	}
}
