package cmd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/iksnae/databricks-chatbot/testutil"
)

func TestHealthcheckCommand(t *testing.T) {
	tests := []struct {
		name   string
		runner *stubRunner
		apiKey string
		want   []string
	}{
		{
			name:   "all good",
			runner: newStubRunner().on("version", "Databricks CLI v0.230.0", nil),
			apiKey: "sk-test",
			want:   []string{"file store readable, 1 chat(s)", "Databricks CLI available", "API key available from environment", "Health check passed!"},
		},
		{
			name:   "no cli and no key",
			runner: newStubRunner().on("version", "", fmt.Errorf("%w: databricks", workspace.ErrCLINotFound)),
			want:   []string{"Databricks CLI not installed", "OpenAI API key not found", "see warnings above"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testEnv(t)
			t.Setenv("OPENAI_API_KEY", tt.apiKey)
			testutil.WriteCurrentChat(t, dir, "chat-1", "One", fixedNow, nil)
			useRunner(tt.runner)

			stdout, _, err := execute(t, "healthcheck", "--chat-dir", dir)
			if err != nil {
				t.Fatalf("healthcheck error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout, w) {
					t.Errorf("output missing %q:\n%s", w, stdout)
				}
			}
		})
	}
}

func TestHealthcheckCommand_BadStore(t *testing.T) {
	testEnv(t)
	useRunner(newStubRunner())
	if _, _, err := execute(t, "healthcheck", "--store", "redis"); err == nil {
		t.Error("healthcheck should fail for an unusable store")
	}
}
