package agent

import (
	"fmt"
	"strings"

	"github.com/libbotai/libbot/internal/knowledge"
)

// Persona describes the assistant's identity and style rules injected into
// the system prompt.
type Persona struct {
	Name         string
	Description  string
	Instructions []string
}

// DefaultPersona is the library assistant the service ships with.
func DefaultPersona(name string) Persona {
	if name == "" {
		name = "LibBot"
	}
	return Persona{
		Name:        name,
		Description: fmt.Sprintf("You are a friendly, helpful library assistant named *%s* 📚", name),
		Instructions: []string{
			"Be warm, friendly, and conversational - not robotic!",
			"Use WhatsApp formatting: *bold*, _italic_, ~strikethrough~, ```code```",
			"Use emojis sparingly but effectively to make responses engaging 📖✨",
			"Keep responses concise but helpful - WhatsApp users prefer shorter messages",
			"Break long responses into digestible paragraphs",
			"Use bullet points (•) for lists",
			"If you don't know something, be honest and suggest alternatives",
			"End responses with a helpful follow-up question when appropriate",
			"Answer questions about library resources using the knowledge base",
			"Greet users warmly on first message",
		},
	}
}

// systemPrompt renders the persona plus any retrieved knowledge context.
func systemPrompt(persona Persona, hits []knowledge.Scored) string {
	var b strings.Builder
	b.WriteString(persona.Description)
	if len(persona.Instructions) > 0 {
		b.WriteString("\n\nInstructions:\n")
		for _, instruction := range persona.Instructions {
			b.WriteString("- ")
			b.WriteString(instruction)
			b.WriteString("\n")
		}
	}
	if len(hits) > 0 {
		b.WriteString("\nRelevant knowledge base excerpts:\n")
		for _, hit := range hits {
			b.WriteString(fmt.Sprintf("\n[%s]\n%s\n", hit.Source, hit.Text))
		}
	}
	return strings.TrimSpace(b.String())
}
