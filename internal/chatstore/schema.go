package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// On-disk schema versions. Version 1 files use id/name and may carry a
// single "timestamp" plus human/ai roles; version 2 is the current shape.
const (
	SchemaLegacy  = 1
	SchemaCurrent = 2
)

// field names per schema version
const (
	keyLegacyID   = "id"
	keyLegacyName = "name"
	keyChatID     = "chat_id"
	keyChatName   = "chat_name"
)

type rawRecord map[string]json.RawMessage

type rawMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// timestamp layouts accepted on read; naive layouts are taken as UTC
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseRecord(data []byte) (rawRecord, error) {
	var obj rawRecord
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("chat record is not a JSON object")
	}
	return obj, nil
}

// schemaVersion reports which field-naming scheme a record uses
func schemaVersion(obj rawRecord) (int, error) {
	if _, ok := obj[keyChatID]; ok {
		return SchemaCurrent, nil
	}
	if _, ok := obj[keyLegacyID]; ok {
		return SchemaLegacy, nil
	}
	return 0, errors.New("record has neither chat_id nor id")
}

// decodeSession normalizes any supported schema version into a ChatSession.
// It never modifies the input.
func decodeSession(data []byte) (*ChatSession, int, error) {
	obj, err := parseRecord(data)
	if err != nil {
		return nil, 0, err
	}
	version, err := schemaVersion(obj)
	if err != nil {
		return nil, 0, err
	}

	idKey, nameKey := keyChatID, keyChatName
	if version == SchemaLegacy {
		idKey, nameKey = keyLegacyID, keyLegacyName
	}

	s := &ChatSession{Messages: []Message{}}
	if err := stringField(obj, idKey, &s.ChatID); err != nil {
		return nil, version, err
	}
	if err := ValidateID(s.ChatID); err != nil {
		return nil, version, err
	}
	if err := stringField(obj, nameKey, &s.ChatName); err != nil {
		return nil, version, err
	}
	if s.CreatedAt, err = timeField(obj["created_at"]); err != nil {
		return nil, version, fmt.Errorf("created_at: %w", err)
	}
	if s.UpdatedAt, err = timeField(obj["updated_at"]); err != nil {
		return nil, version, fmt.Errorf("updated_at: %w", err)
	}
	if s.UpdatedAt.IsZero() {
		// legacy files carry one save timestamp
		if s.UpdatedAt, err = timeField(obj["timestamp"]); err != nil {
			return nil, version, fmt.Errorf("timestamp: %w", err)
		}
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}

	if raw, ok := obj["messages"]; ok && !isNull(raw) {
		var msgs []rawMessage
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, version, fmt.Errorf("messages: %w", err)
		}
		for i, m := range msgs {
			role := normalizeRole(m.Role)
			if !ValidRole(role) {
				return nil, version, fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
			}
			ts, err := timeField(m.Timestamp)
			if err != nil {
				return nil, version, fmt.Errorf("messages[%d].timestamp: %w", i, err)
			}
			s.Messages = append(s.Messages, Message{Role: role, Content: m.Content, Timestamp: ts})
		}
	}

	return s, version, nil
}

// encodeSession writes the current schema
func encodeSession(s *ChatSession) ([]byte, error) {
	out := *s
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return json.MarshalIndent(&out, "", "  ")
}

// migrateRecord renames legacy keys in place. Every other field keeps its
// original JSON value. changed is false for records already current.
func migrateRecord(data []byte) (out []byte, changed bool, err error) {
	obj, err := parseRecord(data)
	if err != nil {
		return nil, false, err
	}
	version, err := schemaVersion(obj)
	if err != nil {
		return nil, false, err
	}
	if version == SchemaCurrent {
		return data, false, nil
	}

	obj[keyChatID] = obj[keyLegacyID]
	delete(obj, keyLegacyID)
	if name, ok := obj[keyLegacyName]; ok {
		if _, exists := obj[keyChatName]; !exists {
			obj[keyChatName] = name
		}
		delete(obj, keyLegacyName)
	}

	out, err = json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, false, err
	}
	if _, _, err := decodeSession(out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func normalizeRole(role string) string {
	switch role {
	case "human":
		return RoleUser
	case "ai":
		return RoleAssistant
	}
	return role
}

func stringField(obj rawRecord, key string, dst *string) error {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func timeField(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || isNull(raw) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
