package channel

import "context"

// Adapter is the base interface every channel adapter must implement.
type Adapter interface {
	Type() ChannelType
}

// Extractor parses a raw webhook payload into a normalized inbound message.
// A nil message with a nil error means the payload carried nothing
// actionable (e.g., a delivery-status callback).
type Extractor interface {
	Extract(payload []byte) (*InboundMessage, error)
}

// Sender delivers a reply to a recipient on the channel's platform.
// Adapters whose replies travel in the webhook's own HTTP response
// implement this as a no-op.
type Sender interface {
	Send(ctx context.Context, to string, text string) error
}

// Sanitizer rewrites reply text into a form the channel accepts. Channels
// that render the agent's markdown natively return the text unchanged.
type Sanitizer interface {
	Sanitize(text string) string
}

// Channel is the full capability set a webhook endpoint needs.
type Channel interface {
	Adapter
	Extractor
	Sender
	Sanitizer
}
