package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/databricks-chatbot/internal/credentials"
	"github.com/iksnae/databricks-chatbot/internal/deploy"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/iksnae/databricks-chatbot/testutil"
)

const currentUserJSON = `{"userName":"jane.doe@example.com","emails":[{"value":"jane.doe@example.com","primary":true}]}`

func TestDeployCommand_FlagConflicts(t *testing.T) {
	testEnv(t)
	useRunner(newStubRunner())

	tests := [][]string{
		{"deploy", "--dry-run", "--redeploy"},
		{"deploy", "-s", "-d"},
		{"deploy", "--status", "--redeploy"},
	}
	for _, args := range tests {
		if _, _, err := execute(t, args...); err == nil {
			t.Errorf("%v should be rejected", args)
		}
	}
}

func TestDeployCommand_DryRun(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	runner := newStubRunner().on("current-user me", currentUserJSON, nil)
	useRunner(runner)

	stdout, _, err := execute(t, "deploy", "--dry-run", "--source", dir)
	if err != nil {
		t.Fatalf("deploy --dry-run error = %v", err)
	}
	for _, want := range []string{"jane-doe-ai-chatbot", "jane-doe-chatbot", "[DRY RUN] Step 5", "Dry run complete"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dry run output missing %q:\n%s", want, stdout)
		}
	}
	for _, mutating := range []string{"secrets", "apps", "sync"} {
		if runner.called(mutating) {
			t.Errorf("dry run called %q: %v", mutating, runner.calls)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "app.yaml")); !os.IsNotExist(err) {
		t.Error("dry run must not write app.yaml")
	}
}

func TestDeployCommand_Full(t *testing.T) {
	dir := testEnv(t)
	runner := newStubRunner().
		on("apps create", "", &workspace.CommandError{ExitCode: 1, Message: "Error: App already exists"}).
		on("apps get", `{"url":"https://jane.example"}`, nil)
	useRunner(runner)

	stdout, _, err := execute(t, "deploy", "--user", "jane.doe@example.com", "--source", dir, "--scope", "shared")
	if err != nil {
		t.Fatalf("deploy error = %v", err)
	}
	if runner.called("current-user") {
		t.Error("--user should skip identity lookup")
	}
	if !runner.called("secrets put-secret shared openai_api_key") {
		t.Errorf("calls = %v", runner.calls)
	}
	if !strings.Contains(stdout, "already exists") || !strings.Contains(stdout, "https://jane.example") {
		t.Errorf("deploy output:\n%s", stdout)
	}

	cfg, err := deploy.LoadAppConfig(filepath.Join(dir, "app.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if scope, _, _ := cfg.SecretRef(); scope != "shared" {
		t.Errorf("app.yaml scope = %q", scope)
	}
}

func TestDeployCommand_FailureDiagnosis(t *testing.T) {
	dir := testEnv(t)
	runner := newStubRunner().
		on("secrets create-scope", "", &workspace.CommandError{ExitCode: 1, Message: "Error: max limit of scope reached"})
	useRunner(runner)

	_, stderr, err := execute(t, "deploy", "--user", "jane@example.com", "--source", dir)
	var stepErr *deploy.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != deploy.StepEnsureScope {
		t.Fatalf("deploy error = %v, want step 1 failure", err)
	}
	if !strings.Contains(stderr, "Workspace Limit Reached") {
		t.Errorf("stderr missing diagnosis:\n%s", stderr)
	}
	if runner.called("apps") || runner.called("sync") {
		t.Errorf("steps ran after failure: %v", runner.calls)
	}
}

func TestDeployCommand_MissingKey(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "explicit user", args: []string{"--user", "jane@example.com"}},
		{name: "logged-in user", args: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testEnv(t)
			t.Setenv("OPENAI_API_KEY", "")
			runner := newStubRunner()
			runner.on("current-user me", currentUserJSON, nil)
			useRunner(runner)

			args := append([]string{"deploy", "--source", dir}, tt.args...)
			_, _, err := execute(t, args...)
			if !errors.Is(err, credentials.ErrCredentialMissing) {
				t.Fatalf("deploy without an API key error = %v, want ErrCredentialMissing", err)
			}
			if len(runner.calls) != 0 {
				t.Errorf("calls made without a key: %v", runner.calls)
			}
		})
	}
}

func TestDeployCommand_RedeployUsesAppYAML(t *testing.T) {
	dir := testEnv(t)
	target, _ := deploy.DeriveTarget("jane@example.com")
	target.ScopeName, target.SecretKey = "team-scope", "team_key"
	appYAML := filepath.Join(testutil.CreateTempDir(t), "app.yaml")
	if err := deploy.WriteAppConfig(appYAML, deploy.NewAppConfig(target)); err != nil {
		t.Fatal(err)
	}
	runner := newStubRunner()
	useRunner(runner)

	stdout, _, err := execute(t, "deploy", "-r", "--user", "jane@example.com", "--source", dir, "--app-yaml", appYAML)
	if err != nil {
		t.Fatalf("redeploy error = %v", err)
	}
	if !strings.Contains(stdout, "team-scope") {
		t.Errorf("redeploy should report the scope from app.yaml:\n%s", stdout)
	}
	if runner.called("secrets") || runner.called("apps create") {
		t.Errorf("redeploy provisioned resources: %v", runner.calls)
	}
	if !runner.called("sync") || !runner.called("apps deploy jane-ai-chatbot") {
		t.Errorf("calls = %v", runner.calls)
	}

	if _, _, err := execute(t, "deploy", "-r", "--user", "jane@example.com", "--app-yaml", filepath.Join(dir, "none.yaml")); err == nil {
		t.Error("redeploy without app.yaml should fail")
	}
}

func TestDeployCommand_Interactive(t *testing.T) {
	dir := testEnv(t)
	runner := newStubRunner()
	useRunner(runner)
	useConfirmer(answer(false))

	stdout, _, err := execute(t, "deploy", "-i", "--user", "jane@example.com", "--source", dir)
	if err != nil {
		t.Fatalf("deploy -i error = %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("declined steps still ran: %v", runner.calls)
	}
	if strings.Count(stdout, "skipped\n") != 5 {
		t.Errorf("want 5 skipped steps:\n%s", stdout)
	}
}

func TestDeployCommand_Status(t *testing.T) {
	testEnv(t)
	runner := newStubRunner().
		on("apps get", `{"name":"jane-ai-chatbot","url":"https://jane.example","app_status":{"state":"CRASHED"},"compute_status":{"state":"ACTIVE"}}`, nil).
		on("apps list-deployments", `[{"deployment_id":"d2","status":{"state":"FAILED"}},{"deployment_id":"d1","status":{"state":"SUCCEEDED"}}]`, nil)
	useRunner(runner)

	stdout, _, err := execute(t, "deploy", "--status", "--user", "jane@example.com")
	if err != nil {
		t.Fatalf("deploy --status error = %v", err)
	}
	for _, want := range []string{"CRASHED", "Issue Detected", "d2", "d1", "Check deployment logs for errors"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, stdout)
		}
	}

	useRunner(newStubRunner().on("apps get", "", &workspace.CommandError{ExitCode: 1, Message: "Error: App does not exist"}))
	_, _, err = execute(t, "deploy", "--status", "--user", "jane@example.com")
	if !errors.Is(err, deploy.ErrAppNotFound) {
		t.Errorf("status error = %v, want ErrAppNotFound", err)
	}
}
