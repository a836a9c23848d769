package deploy

import (
	"context"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

type call struct {
	args  []string
	stdin string
}

// fakeRunner answers CLI calls by matching the leading arguments
type fakeRunner struct {
	calls     []call
	responses map[string]fakeResponse
}

type fakeResponse struct {
	stdout string
	err    error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

// on registers a response for calls starting with prefix (space separated)
func (f *fakeRunner) on(prefix string, stdout string, err error) *fakeRunner {
	f.responses[prefix] = fakeResponse{stdout: stdout, err: err}
	return f
}

func (f *fakeRunner) Run(ctx context.Context, args []string, stdin string) (*workspace.Result, error) {
	f.calls = append(f.calls, call{args: append([]string(nil), args...), stdin: stdin})
	line := strings.Join(args, " ")
	best := ""
	for prefix := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return &workspace.Result{}, nil
	}
	resp := f.responses[best]
	return &workspace.Result{Stdout: resp.stdout}, resp.err
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c.args, " ")
	}
	return out
}

func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.commands() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type scriptedConfirmer struct {
	answers map[string]bool // prompt substring -> answer
	asked   []string
}

func (s *scriptedConfirmer) Confirm(prompt string) (bool, error) {
	s.asked = append(s.asked, prompt)
	for sub, ans := range s.answers {
		if strings.Contains(prompt, sub) {
			return ans, nil
		}
	}
	return true, nil
}

func exists(msg string) error {
	return &workspace.CommandError{ExitCode: 1, Message: msg}
}
