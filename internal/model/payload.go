package model

// Payload is a raw provider webhook body flattened to string values.
type Payload map[string]string

// Get returns the value for key, or "" when absent.
func (p Payload) Get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// Clone returns a copy that is safe to retain after the request ends.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DialRequest is the body of POST /dial.
type DialRequest struct {
	To string `json:"to,omitempty"`
}

// DialResponse is returned by POST /dial.
type DialResponse struct {
	OK      bool   `json:"ok"`
	CallSid string `json:"callSid"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// HangupRequest is the body of POST /hangup.
type HangupRequest struct {
	CallSid string `json:"callSid"`
}

// HangupResponse is returned by POST /hangup.
type HangupResponse struct {
	OK      bool   `json:"ok"`
	CallSid string `json:"callSid"`
}

// ErrorResponse is returned when an operator action fails.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// TokenResponse is returned by GET /token.
type TokenResponse struct {
	Identity string `json:"identity"`
	Token    string `json:"token"`
}
