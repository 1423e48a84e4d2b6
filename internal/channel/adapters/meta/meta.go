// Package meta implements the WhatsApp Cloud API channel adapter: webhook
// payload extraction, outbound delivery through the Graph API, and the
// plain-text sanitization that API requires.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/libbotai/libbot/internal/channel"
)

// Type identifies the Meta WhatsApp Cloud API channel.
const Type channel.ChannelType = "meta"

const messageTypeText = "text"

// Config carries the Cloud API credentials and endpoint.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	GraphBaseURL  string
}

// MetaAdapter sends and receives WhatsApp messages through Meta's Cloud API.
type MetaAdapter struct {
	logger *slog.Logger
	cfg    Config
	client *http.Client
}

// NewMetaAdapter creates the adapter. The HTTP client timeout bounds the
// outbound Graph API call, not the webhook handling.
func NewMetaAdapter(log *slog.Logger, cfg Config) *MetaAdapter {
	if log == nil {
		log = slog.Default()
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.facebook.com/v18.0"
	}
	return &MetaAdapter{
		logger: log.With(slog.String("adapter", "meta")),
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Type returns the channel type.
func (a *MetaAdapter) Type() channel.ChannelType {
	return Type
}

// Extract navigates entry[0].changes[0].value.messages[0] of the
// change-notification envelope. Absence at any level is not an error; it
// means the callback carried no user message (status updates arrive on the
// same route).
func (a *MetaAdapter) Extract(payload []byte) (*channel.InboundMessage, error) {
	var envelope webhookPayload
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	if len(envelope.Entry) == 0 || len(envelope.Entry[0].Changes) == 0 {
		return nil, nil
	}
	value := envelope.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil, nil
	}
	msg := value.Messages[0]

	out := &channel.InboundMessage{
		SenderRaw: msg.From,
		Type:      channel.MessageOther,
	}
	if msg.Type == messageTypeText {
		out.Type = channel.MessageText
		if msg.Text != nil {
			out.Text = msg.Text.Body
		}
	}
	return out, nil
}

// Send posts one text message to the Graph API. The response status is
// logged; non-2xx statuses surface as errors so the pipeline can record the
// failure, but nothing retries.
func (a *MetaAdapter) Send(ctx context.Context, to string, text string) error {
	if strings.TrimSpace(a.cfg.AccessToken) == "" || strings.TrimSpace(a.cfg.PhoneNumberID) == "" {
		return fmt.Errorf("meta credentials not configured")
	}

	body, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             messageTypeText,
		Text:             textContent{Body: text},
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(a.cfg.GraphBaseURL, "/"), a.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph api call: %w", err)
	}
	defer resp.Body.Close()

	a.logger.Info("sent message", slog.String("to", to), slog.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("graph api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// Sanitize strips the markdown markers the Cloud API's plain-text body
// field rejects.
func (a *MetaAdapter) Sanitize(text string) string {
	return channel.StripMarkdown(text)
}

// VerifyToken reports whether a webhook verification handshake matches the
// configured secret.
func (a *MetaAdapter) VerifyToken(mode, token string) bool {
	return mode == "subscribe" && token != "" && token == a.cfg.VerifyToken
}
