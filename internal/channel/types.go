// Package channel defines the messaging-channel abstraction shared by the
// Twilio and Meta WhatsApp adapters: inbound extraction, session identity,
// reply sanitization, and outbound delivery.
package channel

// ChannelType identifies a messaging transport (e.g., "twilio", "meta").
type ChannelType string

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

// MessageType classifies an inbound message. Only text messages are routed
// to the agent; everything else short-circuits to a fixed reply.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageOther MessageType = "other"
)

// InboundMessage is the normalized form of a webhook message.
// SenderRaw keeps the provider's original sender identifier (it is also the
// outbound delivery target); Text is empty unless Type is MessageText.
type InboundMessage struct {
	SenderRaw string
	Type      MessageType
	Text      string
}
