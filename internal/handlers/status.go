// Package handlers contains the echo HTTP handlers that are not tied to a
// specific messaging channel.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusHandler serves the liveness endpoints.
type StatusHandler struct {
	logger         *slog.Logger
	botName        string
	runningMessage string
}

// NewStatusHandler creates the liveness handler.
func NewStatusHandler(log *slog.Logger, botName, runningMessage string) *StatusHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StatusHandler{
		logger:         log.With(slog.String("handler", "status")),
		botName:        botName,
		runningMessage: runningMessage,
	}
}

// Register registers the liveness routes.
func (h *StatusHandler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
}

// Root reports the human-readable running message.
func (h *StatusHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": h.runningMessage,
	})
}

// Health reports service health and which agent persona is serving.
func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  h.botName,
	})
}
