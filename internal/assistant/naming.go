package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

const namingPrompt = `You are a helpful assistant that generates concise and meaningful titles for chat conversations.
Given the first message of a chat, create a brief but descriptive title that captures the main topic or intent.
The title should be 2-5 words, be properly capitalized, and not include any special characters or dates.
Focus on the key subject matter or question being discussed.`

// GenerateChatName asks the model for a short title and appends the
// creation stamp
func GenerateChatName(ctx context.Context, c Completer, model, firstMessage string, now time.Time) (string, error) {
	title, err := c.Complete(ctx, Request{
		Model:        model,
		Temperature:  0,
		SystemPrompt: namingPrompt,
		Input:        fmt.Sprintf("Generate a concise title for a chat that starts with this message: '%s'", firstMessage),
	})
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(title), `"'`)
	if title == "" {
		return chatstore.DefaultName(now), nil
	}
	return title + " " + chatstore.FormatStamp(now), nil
}
