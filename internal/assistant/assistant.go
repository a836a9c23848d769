// Package assistant talks to the chat completion provider.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

// Request is one completion call
type Request struct {
	Model        string
	Temperature  float32
	SystemPrompt string
	History      []chatstore.Message // prior turns, oldest first
	Input        string
}

// Completer returns the assistant reply for a request
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ValidateTemperature requires a value in [0, 1]
func ValidateTemperature(t float32) error {
	if t < 0 || t > 1 {
		return validationError("config", fmt.Sprintf("temperature must be between 0 and 1, got %v", t))
	}
	return nil
}

// Validate checks the request before it is sent
func (r Request) Validate() error {
	if strings.TrimSpace(r.Input) == "" {
		return validationError("completion", "input must be a non-empty string")
	}
	if r.Model == "" {
		return validationError("completion", "model must be set")
	}
	return ValidateTemperature(r.Temperature)
}
