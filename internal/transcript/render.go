// Package transcript renders a message sequence for the terminal. It is
// stateless over the provided list: every content variant is matched
// explicitly, with plain text as the default.
package transcript

import (
	"fmt"
	"strings"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// Labels and fixed lines
const (
	userLabel      = "You"
	assistantLabel = "Assistant"

	// TypingIndicator is appended while an answer is pending
	TypingIndicator = "Assistant is typing..."

	// EmptyPrompt is the entry action shown for an empty conversation
	EmptyPrompt = "No messages yet. Ask a question, or select documents to search with /select."
)

// Render produces the visual transcript for messages plus the typing flag
func Render(messages []domain.Message, typing bool) string {
	var b strings.Builder

	if len(messages) == 0 {
		b.WriteString(EmptyPrompt)
		b.WriteString("\n")
	}

	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		renderMessage(&b, msg)
	}

	if typing {
		if len(messages) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(TypingIndicator)
		b.WriteString("\n")
	}

	return b.String()
}

func renderMessage(b *strings.Builder, msg domain.Message) {
	label := assistantLabel
	if msg.Role == domain.RoleUser {
		label = userLabel
	}
	fmt.Fprintf(b, "%s: %s\n", label, msg.Content)

	switch msg.Type {
	case domain.MessageTypeMultiAnswer:
		for i, result := range msg.Results {
			fmt.Fprintf(b, "  %d. %s: %s\n", i+1, result.SourceName, result.Answer)
			if result.ViewableURL != "" {
				fmt.Fprintf(b, "     Link: %s\n", result.ViewableURL)
			}
		}
	case domain.MessageTypePDFSelection:
		for _, pdf := range msg.PDFs {
			fmt.Fprintf(b, "  - %s (%s)\n", pdf.DisplayName(), pdf.Category)
		}
		if len(msg.PDFs) > 0 {
			b.WriteString("  Use /summarize to summarize the selected documents.\n")
		}
	}
}

// Flatten converts structured content into plain text for copying
func Flatten(msg domain.Message) string {
	switch msg.Type {
	case domain.MessageTypeMultiAnswer:
		parts := make([]string, len(msg.Results))
		for i, result := range msg.Results {
			parts[i] = fmt.Sprintf("%d. %s: %s", i+1, result.SourceName, result.Answer)
		}
		return strings.Join(parts, "\n\n")
	case domain.MessageTypePDFSelection:
		lines := []string{msg.Content}
		for _, pdf := range msg.PDFs {
			lines = append(lines, "- "+pdf.DisplayName())
		}
		return strings.Join(lines, "\n")
	default:
		return msg.Content
	}
}
