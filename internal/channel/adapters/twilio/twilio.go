// Package twilio implements the Twilio WhatsApp channel adapter. Replies
// ride the webhook's own HTTP response as a TwiML document, so the adapter
// has no outbound network path.
package twilio

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/libbotai/libbot/internal/channel"
)

// Type identifies the Twilio messaging channel.
const Type channel.ChannelType = "twilio"

// Config carries the Twilio account credentials. They are not needed for
// webhook replies; they exist for proactive sends and fail lazily when
// absent.
type Config struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
}

// TwilioAdapter extracts inbound form-encoded webhooks and renders TwiML
// replies.
type TwilioAdapter struct {
	logger *slog.Logger
	cfg    Config
}

// NewTwilioAdapter creates the adapter.
func NewTwilioAdapter(log *slog.Logger, cfg Config) *TwilioAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &TwilioAdapter{
		logger: log.With(slog.String("adapter", "twilio")),
		cfg:    cfg,
	}
}

// Type returns the channel type.
func (a *TwilioAdapter) Type() channel.ChannelType {
	return Type
}

// Extract reads the Body and From fields of the form-encoded webhook.
// Twilio invokes the webhook once per message, so a well-formed payload
// always carries exactly one text message.
func (a *TwilioAdapter) Extract(payload []byte) (*channel.InboundMessage, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parse form payload: %w", err)
	}
	from := values.Get("From")
	if from == "" {
		return nil, nil
	}
	return &channel.InboundMessage{
		SenderRaw: from,
		Type:      channel.MessageText,
		Text:      values.Get("Body"),
	}, nil
}

// Send is a no-op: the reply is the webhook's HTTP response body.
func (a *TwilioAdapter) Send(ctx context.Context, to string, text string) error {
	return nil
}

// Sanitize passes the agent's text through unchanged; Twilio's WhatsApp
// client renders a compatible markdown subset natively.
func (a *TwilioAdapter) Sanitize(text string) string {
	return text
}

// messagingResponse is the TwiML document Twilio consumes as the reply.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// TwiML renders the reply text as a messaging-response XML document.
func TwiML(text string) ([]byte, error) {
	body, err := xml.Marshal(messagingResponse{Message: text})
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
