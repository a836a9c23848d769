package export

import (
	"time"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

var testTime = time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)

func sampleSession(id string) *chatstore.ChatSession {
	return &chatstore.ChatSession{
		ChatID:    id,
		ChatName:  "Unity Catalog questions",
		CreatedAt: testTime,
		UpdatedAt: testTime.Add(time.Minute),
		Messages: []chatstore.Message{
			{Role: chatstore.RoleUser, Content: "Hello, how are you?", Timestamp: testTime},
			{Role: chatstore.RoleAssistant, Content: "I'm doing well, thank you!", Timestamp: testTime.Add(time.Minute)},
		},
	}
}

func emptySession(id string) *chatstore.ChatSession {
	return &chatstore.ChatSession{ChatID: id, Messages: []chatstore.Message{}}
}
