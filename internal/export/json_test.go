package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		session   *chatstore.ChatSession
		wantCount int
	}{
		{name: "basic session", session: sampleSession("test1"), wantCount: 2},
		{name: "empty session", session: emptySession("test2"), wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONExporter{}).Export(tt.session, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			var got map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if got["chat_id"] != tt.session.ChatID {
				t.Errorf("chat_id = %v, want %s", got["chat_id"], tt.session.ChatID)
			}
			msgs, ok := got["messages"].([]interface{})
			if !ok {
				t.Fatalf("messages = %T, want array", got["messages"])
			}
			if len(msgs) != tt.wantCount {
				t.Errorf("len(messages) = %d, want %d", len(msgs), tt.wantCount)
			}
		})
	}
}

func TestJSONExporter_Indented(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sampleSession("x"), &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"chat_id\"")) {
		t.Errorf("output not indented:\n%s", buf.String())
	}
}
