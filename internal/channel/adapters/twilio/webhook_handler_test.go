package twilio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/libbotai/libbot/internal/channel"
)

type fakeGateway struct {
	reply string
	err   error
	calls int
	keys  []string
	texts []string
}

func (g *fakeGateway) Run(ctx context.Context, text string, sessionID string) (string, error) {
	g.calls++
	g.texts = append(g.texts, text)
	g.keys = append(g.keys, sessionID)
	return g.reply, g.err
}

func newTestHandler(gw channel.Gateway) *WebhookHandler {
	adapter := NewTwilioAdapter(nil, Config{})
	pipeline := channel.NewPipeline(nil, gw, channel.ReplyTexts{
		Fallback: "Something went wrong 🙈 Please try again!",
		Empty:    "Oops! 😅 I couldn't process that.",
		TextOnly: "Sorry, I can only process text messages right now! 📝",
	})
	return NewWebhookHandler(nil, adapter, pipeline)
}

func postForm(t *testing.T, h *WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Handle(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestHandleRepliesWithTwiML(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "*Welcome* to the library 📚"}
	h := newTestHandler(gw)

	form := url.Values{}
	form.Set("Body", "Hi")
	form.Set("From", "whatsapp:+15551234567")
	form.Set("To", "whatsapp:+15550000000")
	rec := postForm(t, h, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "application/xml") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	// Twilio renders markdown natively, so the reply stays unsanitized.
	if !strings.Contains(rec.Body.String(), "*Welcome* to the library 📚") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if gw.calls != 1 {
		t.Fatalf("expected one agent call, got %d", gw.calls)
	}
	if gw.keys[0] != "15551234567" {
		t.Fatalf("unexpected session key: %s", gw.keys[0])
	}
	if gw.texts[0] != "Hi" {
		t.Fatalf("unexpected agent input: %s", gw.texts[0])
	}
}

func TestHandleAgentFailureRepliesWithFallback(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{err: errors.New("model down")}
	h := newTestHandler(gw)

	form := url.Values{}
	form.Set("Body", "Hi")
	form.Set("From", "whatsapp:+15551234567")
	rec := postForm(t, h, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("status must stay 200 on agent failure, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Fatalf("expected fallback reply, got %s", rec.Body.String())
	}
}

func TestHandleEmptyFormStillResponds(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeGateway{})
	rec := postForm(t, h, url.Values{})

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<Response>") {
		t.Fatalf("expected twiml document, got %s", rec.Body.String())
	}
}
