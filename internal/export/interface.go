package export

import (
	"fmt"
	"io"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *chatstore.ChatSession, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// FileName returns the export file name for a session
func FileName(session *chatstore.ChatSession, e Exporter) string {
	return session.ChatID + "." + e.Extension()
}
