package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// FixtureMessage is a message written by the chat fixtures
type FixtureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WriteChatFile writes raw JSON chat data to dir/name
func WriteChatFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create chat directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write chat file %s: %v", path, err)
	}
	return path
}

// WriteLegacyChat writes a chat using the old id/name keys under filename
func WriteLegacyChat(t *testing.T, dir, filename, id, name string, ts time.Time, msgs []FixtureMessage) string {
	t.Helper()
	record := map[string]interface{}{
		"id":        id,
		"name":      name,
		"timestamp": ts.UTC().Format("2006-01-02T15:04:05"),
		"messages":  msgs,
	}
	return WriteChatFile(t, dir, filename, JSONMarshal(t, record))
}

// WriteCurrentChat writes a chat in the chat_id/chat_name shape as <id>.json
func WriteCurrentChat(t *testing.T, dir, id, name string, updated time.Time, msgs []FixtureMessage) string {
	t.Helper()
	record := map[string]interface{}{
		"chat_id":    id,
		"chat_name":  name,
		"created_at": updated.UTC().Format(time.RFC3339),
		"updated_at": updated.UTC().Format(time.RFC3339),
		"messages":   msgs,
	}
	return WriteChatFile(t, dir, id+".json", JSONMarshal(t, record))
}

// SampleMessages returns a two-turn exchange
func SampleMessages() []FixtureMessage {
	return []FixtureMessage{
		{Role: "user", Content: "What is Unity Catalog?"},
		{Role: "assistant", Content: "Unity Catalog is a unified governance layer."},
	}
}
