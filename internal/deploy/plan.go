package deploy

import (
	"fmt"
	"strings"
)

// StepID numbers the deployment steps in execution order
type StepID int

const (
	StepEnsureScope StepID = iota + 1
	StepPutSecret
	StepEnsureApp
	StepSync
	StepDeploy
)

var stepNames = map[StepID]string{
	StepEnsureScope: "create secret scope",
	StepPutSecret:   "write API key secret",
	StepEnsureApp:   "create app",
	StepSync:        "sync source",
	StepDeploy:      "deploy app",
}

func (s StepID) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step %d", int(s))
}

// SyncExcludes are never uploaded to the workspace
var SyncExcludes = []string{"*.pyc", ".git", "venv", "*.egg-info", "__pycache__", "saved_chats"}

// Action is one planned CLI invocation
type Action struct {
	Step        StepID
	Description string
	Args        []string
	Stdin       string
	Mutating    bool
	DependsOn   []StepID
	// create steps succeed when the resource is already there
	TolerateExists bool
}

// CommandLine renders the invocation for display. Stdin is never shown.
func (a Action) CommandLine() string {
	parts := make([]string, 0, len(a.Args)+1)
	parts = append(parts, "databricks")
	for _, arg := range a.Args {
		if strings.ContainsAny(arg, " *'\"") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		parts = append(parts, arg)
	}
	line := strings.Join(parts, " ")
	if a.Stdin != "" {
		line = "echo '<OPENAI_API_KEY>' | " + line
	}
	return line
}

// Plan returns the full deployment sequence for t
func Plan(t *Target, apiKey string) []Action {
	return []Action{
		{
			Step:           StepEnsureScope,
			Description:    fmt.Sprintf("Create secret scope '%s'", t.ScopeName),
			Args:           []string{"secrets", "create-scope", t.ScopeName},
			Mutating:       true,
			TolerateExists: true,
		},
		{
			Step:        StepPutSecret,
			Description: fmt.Sprintf("Write secret '%s' to scope '%s'", t.SecretKey, t.ScopeName),
			Args:        []string{"secrets", "put-secret", t.ScopeName, t.SecretKey},
			Stdin:       apiKey,
			Mutating:    true,
			DependsOn:   []StepID{StepEnsureScope},
		},
		{
			Step:           StepEnsureApp,
			Description:    fmt.Sprintf("Create app '%s'", t.AppName),
			Args:           []string{"apps", "create", t.AppName},
			Mutating:       true,
			TolerateExists: true,
		},
		syncAction(t),
		deployAction(t, StepEnsureApp, StepSync),
	}
}

// RedeployPlan re-runs only sync and deploy
func RedeployPlan(t *Target) []Action {
	return []Action{syncAction(t), deployAction(t, StepSync)}
}

func syncAction(t *Target) Action {
	args := []string{"sync", t.SourceDir, t.WorkspacePath}
	for _, ex := range SyncExcludes {
		args = append(args, "--exclude", ex)
	}
	return Action{
		Step:        StepSync,
		Description: fmt.Sprintf("Sync %s to %s", t.SourceDir, t.WorkspacePath),
		Args:        args,
		Mutating:    true,
	}
}

func deployAction(t *Target, deps ...StepID) Action {
	return Action{
		Step:        StepDeploy,
		Description: fmt.Sprintf("Deploy app '%s' from %s", t.AppName, t.WorkspacePath),
		Args:        []string{"apps", "deploy", t.AppName, "--source-code-path", t.WorkspacePath},
		Mutating:    true,
		DependsOn:   deps,
	}
}
