package telephony

import (
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go/client/jwt"
)

// ErrTokenNotConfigured is returned when key material for access tokens is
// missing.
var ErrTokenNotConfigured = errors.New("access token credentials not configured")

// TokenConfig holds the API key used to sign client access tokens.
type TokenConfig struct {
	AccountSid     string
	APIKeySid      string
	APIKeySecret   string
	ApplicationSid string
	TTL            time.Duration
}

// TokenIssuer mints short-lived voice access tokens for software clients.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer creates an issuer. A one hour TTL is used when none is set.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &TokenIssuer{cfg: cfg}
}

// Configured reports whether tokens can be issued.
func (i *TokenIssuer) Configured() bool {
	return i.cfg.AccountSid != "" && i.cfg.APIKeySid != "" && i.cfg.APIKeySecret != ""
}

// Issue returns a signed access token granting identity incoming calls and,
// when an application is configured, outgoing calls through it.
func (i *TokenIssuer) Issue(identity string) (string, error) {
	if !i.Configured() {
		return "", ErrTokenNotConfigured
	}
	if identity == "" {
		return "", errors.New("identity is required")
	}

	token := jwt.CreateAccessToken(jwt.AccessTokenParams{
		AccountSid:    i.cfg.AccountSid,
		SigningKeySid: i.cfg.APIKeySid,
		Secret:        i.cfg.APIKeySecret,
		Identity:      identity,
		Ttl:           i.cfg.TTL.Seconds(),
	})
	token.AddGrant(&jwt.VoiceGrant{
		Incoming: jwt.Incoming{Allow: true},
		Outgoing: jwt.Outgoing{ApplicationSid: i.cfg.ApplicationSid},
	})

	signed, err := token.ToJwt()
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
