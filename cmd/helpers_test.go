package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/databricks-chatbot/internal/assistant"
	"github.com/iksnae/databricks-chatbot/internal/config"
	"github.com/iksnae/databricks-chatbot/internal/deploy"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/iksnae/databricks-chatbot/testutil"
)

var fixedNow = time.Date(2026, 10, 14, 15, 4, 0, 0, time.UTC)

// resetFlags restores every package-level flag value between runs
func resetFlags() {
	verbose, chatDir, storeKind = false, "", ""
	showLimit = 0
	askChatID, askNew = "", false
	clearYes = false
	format, outputDir, exportChatID = "jsonl", "./exports", ""
	deployDryRun, deployInteractive, deployRedeploy, deployStatus = false, false, false, false
	deployUser, deployAppName, deployScope, deploySecretKey, deploySource, deployAppYAML = "", "", "", "", "", ""
}

// testEnv isolates configuration from the developer's environment
func testEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("ENV", "production")
	for _, key := range []string{"CHAT_HISTORY_DIR", "CHAT_STORE", "CHAT_SQLITE_PATH", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "OPENAI_TEMPERATURE", "DATABRICKS_RUNTIME_VERSION", "DATABRICKS_APP_NAME"} {
		t.Setenv(key, "")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")

	origNow, origCompleter, origRunner, origConfirmer := now, newCompleter, newRunner, newConfirmer
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		now, newCompleter, newRunner, newConfirmer = origNow, origCompleter, origRunner, origConfirmer
		resetFlags()
	})
	resetFlags()
	return testutil.CreateTempDir(t)
}

// execute runs the root command and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.ExecuteContext(context.Background())
	resetFlags()
	return stdout.String(), stderr.String(), err
}

type fakeCompleter struct {
	reply    string
	title    string
	err      error
	requests []assistant.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req assistant.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if strings.Contains(req.Input, "Generate a concise title") {
		return f.title, nil
	}
	return f.reply, nil
}

func useCompleter(c assistant.Completer) {
	newCompleter = func(*config.Config, string) assistant.Completer { return c }
}

// stubRunner answers CLI calls by longest matching argument prefix
type stubRunner struct {
	responses map[string]stubResponse
	calls     []string
}

type stubResponse struct {
	stdout string
	err    error
}

func useRunner(r *stubRunner) {
	newRunner = func(string) workspace.Runner { return r }
}

func newStubRunner() *stubRunner {
	return &stubRunner{responses: make(map[string]stubResponse)}
}

func (s *stubRunner) on(prefix, stdout string, err error) *stubRunner {
	s.responses[prefix] = stubResponse{stdout: stdout, err: err}
	return s
}

func (s *stubRunner) Run(ctx context.Context, args []string, stdin string) (*workspace.Result, error) {
	line := strings.Join(args, " ")
	s.calls = append(s.calls, line)
	best := ""
	for prefix := range s.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return &workspace.Result{}, nil
	}
	resp := s.responses[best]
	return &workspace.Result{Stdout: resp.stdout}, resp.err
}

func (s *stubRunner) called(prefix string) bool {
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type answer bool

func (a answer) Confirm(string) (bool, error) { return bool(a), nil }

func useConfirmer(c deploy.Confirmer) {
	newConfirmer = func() deploy.Confirmer { return c }
}
