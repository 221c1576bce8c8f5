package normalize

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/call-controller/internal/model"
)

const maxWebhookBody = 1 << 20

// FromRequest flattens a webhook request into a Payload. Form and JSON bodies
// are understood; query parameters fill keys the body does not set. It never
// fails: an unreadable body contributes nothing.
func FromRequest(r *http.Request) model.Payload {
	p := model.Payload{}

	if r.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/json" {
			mergeJSON(p, body)
		} else if values, err := url.ParseQuery(string(body)); err == nil {
			mergeValues(p, values)
		}
	}

	for k, v := range r.URL.Query() {
		if _, ok := p[k]; !ok && len(v) > 0 {
			p[k] = v[0]
		}
	}

	return p
}

func mergeValues(p model.Payload, values url.Values) {
	for k, v := range values {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
}

func mergeJSON(p model.Payload, body []byte) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return
	}
	for k, raw := range obj {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			p[k] = s
			continue
		}
		p[k] = string(raw)
	}
}
