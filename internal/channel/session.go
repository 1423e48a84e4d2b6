package channel

import "strings"

const whatsappPrefix = "whatsapp:"

// SessionKey derives the stable conversation key for a raw sender
// identifier. "whatsapp:+15551234567", "+15551234567" and "15551234567"
// all map to "15551234567", so history lookups stay consistent no matter
// which form the provider delivers. Re-applying is a no-op.
func SessionKey(senderRaw string) string {
	key := strings.TrimPrefix(strings.TrimSpace(senderRaw), whatsappPrefix)
	return strings.TrimPrefix(key, "+")
}
