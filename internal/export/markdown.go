package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *chatstore.ChatSession, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", headerName(session))
	_, _ = fmt.Fprintf(w, "**Chat ID:** %s  \n", session.ChatID)
	if !session.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", chatstore.FormatStamp(session.UpdatedAt))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", chatstore.FormatStamp(msg.Timestamp))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", roleLabel(msg.Role), timestamp, escapeMarkdown(msg.Content))

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func headerName(session *chatstore.ChatSession) string {
	if session.ChatName != "" {
		return session.ChatName
	}
	return "Chat " + session.ChatID
}

func roleLabel(role string) string {
	switch role {
	case chatstore.RoleUser:
		return "You"
	case chatstore.RoleAssistant:
		return "Assistant"
	case chatstore.RoleSystem:
		return "System"
	}
	return role
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
