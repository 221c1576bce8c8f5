package telephony

import (
	"encoding/xml"
	"fmt"
)

// TrackBoth asks the provider to transcribe both legs of the call.
const TrackBoth = "both_tracks"

// InboundOptions configures the inbound call flow.
type InboundOptions struct {
	TranscriptionCallbackURL string
	TranscriptionEngine      string
	LanguageCode             string
	ClientIdentity           string
}

type twimlResponse struct {
	XMLName xml.Name   `xml:"Response"`
	Start   twimlStart `xml:"Start"`
	Dial    twimlDial  `xml:"Dial"`
}

type twimlStart struct {
	Transcription twimlTranscription `xml:"Transcription"`
}

type twimlTranscription struct {
	StatusCallbackURL    string `xml:"statusCallbackUrl,attr"`
	StatusCallbackMethod string `xml:"statusCallbackMethod,attr"`
	Track                string `xml:"track,attr"`
	TranscriptionEngine  string `xml:"transcriptionEngine,attr,omitempty"`
	LanguageCode         string `xml:"languageCode,attr,omitempty"`
	PartialResults       bool   `xml:"partialResults,attr"`
}

type twimlDial struct {
	Client string `xml:"Client"`
}

// InboundTwiML renders the call flow for a bridged call: start dual-track live
// transcription, then dial the software client.
func InboundTwiML(opts InboundOptions) ([]byte, error) {
	doc := twimlResponse{
		Start: twimlStart{
			Transcription: twimlTranscription{
				StatusCallbackURL:    opts.TranscriptionCallbackURL,
				StatusCallbackMethod: "POST",
				Track:                TrackBoth,
				TranscriptionEngine:  opts.TranscriptionEngine,
				LanguageCode:         opts.LanguageCode,
				PartialResults:       true,
			},
		},
		Dial: twimlDial{Client: opts.ClientIdentity},
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render TwiML: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
