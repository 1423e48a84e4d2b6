package meta

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/libbotai/libbot/internal/channel"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookHandler receives Meta WhatsApp Cloud API callbacks: the GET
// verification handshake and POST change notifications.
type WebhookHandler struct {
	logger   *slog.Logger
	adapter  *MetaAdapter
	pipeline *channel.Pipeline
}

// NewWebhookHandler creates the Cloud API webhook handler.
func NewWebhookHandler(log *slog.Logger, adapter *MetaAdapter, pipeline *channel.Pipeline) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:   log.With(slog.String("handler", "meta_webhook")),
		adapter:  adapter,
		pipeline: pipeline,
	}
}

// Register registers the webhook routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhook", h.HandleVerify)
	e.POST("/webhook", h.Handle)
}

// HandleVerify answers Meta's one-shot subscription handshake: echo the
// challenge when the mode and verify token match, 403 otherwise.
func (h *WebhookHandler) HandleVerify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if h.adapter.VerifyToken(mode, token) {
		h.logger.Info("webhook verified")
		return c.String(http.StatusOK, challenge)
	}
	return c.String(http.StatusForbidden, "Forbidden")
}

// Handle processes a change notification. The acknowledgement contract is
// unconditional: whatever happens inside the pipeline or during delivery,
// the provider gets HTTP 200 with a fixed-shape status body.
func (h *WebhookHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes))
	if err != nil {
		h.logger.Warn("read webhook body failed", slog.Any("error", err))
		return h.ack(c)
	}

	// Detach from the request context: the provider's webhook deadline is
	// shorter than an agent round trip, and a provider-side disconnect must
	// not cancel the reply.
	ctx := context.WithoutCancel(c.Request().Context())
	res := h.pipeline.Process(ctx, h.adapter, payload)
	h.pipeline.Deliver(ctx, h.adapter, res)

	return h.ack(c)
}

func (h *WebhookHandler) ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
