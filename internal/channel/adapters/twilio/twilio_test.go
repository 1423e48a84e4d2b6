package twilio

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/libbotai/libbot/internal/channel"
)

func TestExtractFormPayload(t *testing.T) {
	t.Parallel()

	form := url.Values{}
	form.Set("Body", "Hi")
	form.Set("From", "whatsapp:+15551234567")
	form.Set("To", "whatsapp:+15550000000")

	a := NewTwilioAdapter(nil, Config{})
	msg, err := a.Extract([]byte(form.Encode()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.SenderRaw != "whatsapp:+15551234567" || msg.Type != channel.MessageText || msg.Text != "Hi" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestExtractMissingSender(t *testing.T) {
	t.Parallel()

	a := NewTwilioAdapter(nil, Config{})
	msg, err := a.Extract([]byte("Body=Hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message, got %+v", msg)
	}
}

func TestSanitizeIsIdentity(t *testing.T) {
	t.Parallel()

	a := NewTwilioAdapter(nil, Config{})
	text := "*Hello* _there_ ~friend~ `code`"
	if got := a.Sanitize(text); got != text {
		t.Fatalf("twilio must pass markdown through, got %q", got)
	}
}

func TestSendIsNoop(t *testing.T) {
	t.Parallel()

	a := NewTwilioAdapter(nil, Config{})
	if err := a.Send(context.Background(), "whatsapp:+15551234567", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTwiML(t *testing.T) {
	t.Parallel()

	doc, err := TwiML("Hello <world> & friends")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(doc)
	if !strings.HasPrefix(body, "<?xml") {
		t.Fatalf("missing xml declaration: %s", body)
	}
	if !strings.Contains(body, "<Response><Message>") {
		t.Fatalf("missing response element: %s", body)
	}
	if !strings.Contains(body, "Hello &lt;world&gt; &amp; friends") {
		t.Fatalf("reply not escaped: %s", body)
	}
}
