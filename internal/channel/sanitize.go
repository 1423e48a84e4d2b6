package channel

import "strings"

// markdownStripper removes the inline markers the agent emits for WhatsApp
// formatting. The Meta Cloud API's plain-text body field mishandles them.
var markdownStripper = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")

// StripMarkdown removes *, _, ~ and backtick characters from text.
// Applying it twice yields the same result as applying it once.
func StripMarkdown(text string) string {
	return markdownStripper.Replace(text)
}
