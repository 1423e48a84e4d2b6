package twilio

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/libbotai/libbot/internal/channel"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookHandler receives Twilio messaging webhooks and answers each one
// with a TwiML document carrying the reply.
type WebhookHandler struct {
	logger   *slog.Logger
	adapter  *TwilioAdapter
	pipeline *channel.Pipeline
}

// NewWebhookHandler creates the Twilio webhook handler.
func NewWebhookHandler(log *slog.Logger, adapter *TwilioAdapter, pipeline *channel.Pipeline) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:   log.With(slog.String("handler", "twilio_webhook")),
		adapter:  adapter,
		pipeline: pipeline,
	}
}

// Register registers the webhook route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Handle)
}

// Handle processes one inbound message. The HTTP status is 200 no matter
// what happened inside the pipeline; a reply Twilio never renders is
// equivalent to a dropped delivery, and that is the channel's contract.
func (h *WebhookHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes))
	if err != nil {
		h.logger.Warn("read webhook body failed", slog.Any("error", err))
		return h.respond(c, "")
	}

	res := h.pipeline.Process(c.Request().Context(), h.adapter, payload)
	return h.respond(c, res.Reply)
}

func (h *WebhookHandler) respond(c echo.Context, reply string) error {
	doc, err := TwiML(reply)
	if err != nil {
		h.logger.Error("render twiml failed", slog.Any("error", err))
		doc = []byte(xmlFallback)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXML, doc)
}

const xmlFallback = `<?xml version="1.0" encoding="UTF-8"?><Response><Message></Message></Response>`
