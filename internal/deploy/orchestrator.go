package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/credentials"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

// Outcome of a single step
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeExists  Outcome = "already-exists"
	OutcomeSkipped Outcome = "skipped"
	OutcomePlanned Outcome = "planned"
)

// StepResult records what happened to one action
type StepResult struct {
	Action  Action
	Outcome Outcome
	Output  string
}

// Report summarizes a deploy or redeploy run
type Report struct {
	Target *Target
	DryRun bool
	Steps  []StepResult
	AppURL string
}

// Outcome returns the outcome recorded for step, or "" if it never ran
func (r *Report) Outcome(step StepID) Outcome {
	for _, s := range r.Steps {
		if s.Action.Step == step {
			return s.Outcome
		}
	}
	return ""
}

// StepError is the step that aborted a run
type StepError struct {
	Step StepID
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %s", int(e.Step), e.Step, errorMessage(e.Err))
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Message returns the tool's cleaned message for the failure
func (e *StepError) Message() string {
	return errorMessage(e.Err)
}

func errorMessage(err error) string {
	var cmdErr *workspace.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message
	}
	return err.Error()
}

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ProgressFunc wraps a long-running step with operator feedback
type ProgressFunc func(ctx context.Context, message string, fn func() error) error

// Orchestrator runs deployment plans through a workspace.Runner
type Orchestrator struct {
	Runner      workspace.Runner
	Confirm     Confirmer
	Out         io.Writer
	DryRun      bool
	Interactive bool
	// AppYAMLPath defaults to app.yaml inside the target's source dir
	AppYAMLPath string
	Progress    ProgressFunc
}

func (o *Orchestrator) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o *Orchestrator) appYAMLPath(t *Target) string {
	if o.AppYAMLPath != "" {
		return o.AppYAMLPath
	}
	return filepath.Join(t.SourceDir, "app.yaml")
}

// Deploy provisions the scope, secret and app, then syncs and deploys.
// apiKey is only required when not in dry-run mode.
func (o *Orchestrator) Deploy(ctx context.Context, t *Target, apiKey string) (*Report, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !o.DryRun && strings.TrimSpace(apiKey) == "" {
		return nil, credentials.ErrCredentialMissing
	}

	cfg := NewAppConfig(t)
	path := o.appYAMLPath(t)
	if o.DryRun {
		data, err := cfg.Marshal()
		if err != nil {
			return nil, err
		}
		internal.FprintInfo(o.out(), fmt.Sprintf("[DRY RUN] Would write %s:", path))
		fmt.Fprintf(o.out(), "%s\n", data)
	} else {
		if err := WriteAppConfig(path, cfg); err != nil {
			return nil, err
		}
		internal.FprintSuccess(o.out(), fmt.Sprintf("%s configured for scope %s, secret %s", path, t.ScopeName, t.SecretKey))
	}

	return o.execute(ctx, t, Plan(t, apiKey))
}

// Redeploy syncs and deploys an app that already exists
func (o *Orchestrator) Redeploy(ctx context.Context, t *Target) (*Report, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return o.execute(ctx, t, RedeployPlan(t))
}

func (o *Orchestrator) execute(ctx context.Context, t *Target, actions []Action) (*Report, error) {
	report := &Report{Target: t, DryRun: o.DryRun}
	skipped := make(map[StepID]bool)

	for _, action := range actions {
		if dep, ok := skippedDependency(action, skipped); ok {
			internal.FprintWarning(o.out(), fmt.Sprintf("Skipping step %d (%s): depends on skipped step %d (%s)",
				int(action.Step), action.Step, int(dep), dep))
			skipped[action.Step] = true
			report.Steps = append(report.Steps, StepResult{Action: action, Outcome: OutcomeSkipped})
			continue
		}

		keep, asked, err := o.confirmOverwrite(ctx, t, action)
		if err != nil {
			return report, err
		}
		if keep {
			report.Steps = append(report.Steps, StepResult{Action: action, Outcome: OutcomeExists})
			continue
		}

		if o.Interactive && action.Mutating && o.Confirm != nil && !asked {
			ok, err := o.Confirm.Confirm(fmt.Sprintf("Step %d: %s?", int(action.Step), action.Description))
			if err != nil {
				return report, fmt.Errorf("confirmation failed: %w", err)
			}
			if !ok {
				internal.FprintWarning(o.out(), fmt.Sprintf("Skipped step %d (%s)", int(action.Step), action.Step))
				skipped[action.Step] = true
				report.Steps = append(report.Steps, StepResult{Action: action, Outcome: OutcomeSkipped})
				continue
			}
		}

		if o.DryRun {
			internal.FprintInfo(o.out(), fmt.Sprintf("[DRY RUN] Step %d: %s", int(action.Step), action.Description))
			fmt.Fprintf(o.out(), "         Command: %s\n", action.CommandLine())
			report.Steps = append(report.Steps, StepResult{Action: action, Outcome: OutcomePlanned})
			continue
		}

		result, err := o.run(ctx, action)
		if err != nil {
			return report, err
		}
		if action.Step == StepEnsureScope && result.Outcome == OutcomeExists {
			o.checkScopeACL(ctx, t.ScopeName)
		}
		report.Steps = append(report.Steps, result)
	}

	if !o.DryRun && report.Outcome(StepDeploy) == OutcomeDone {
		report.AppURL = o.appURL(ctx, t.AppName)
	}
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, action Action) (StepResult, error) {
	var res *workspace.Result
	call := func() error {
		var err error
		res, err = o.Runner.Run(ctx, action.Args, action.Stdin)
		return err
	}

	var err error
	message := fmt.Sprintf("Step %d: %s", int(action.Step), action.Description)
	if o.Progress != nil {
		err = o.Progress(ctx, message, call)
	} else {
		internal.LogInfo("%s", message)
		err = call()
	}

	if err != nil {
		if action.TolerateExists && workspace.IsAlreadyExists(err) {
			internal.FprintWarning(o.out(), fmt.Sprintf("%s: already exists, continuing", action.Description))
			return StepResult{Action: action, Outcome: OutcomeExists}, nil
		}
		return StepResult{}, &StepError{Step: action.Step, Err: err}
	}

	internal.FprintSuccess(o.out(), fmt.Sprintf("Step %d (%s) complete", int(action.Step), action.Step))
	output := ""
	if res != nil {
		output = res.Stdout
	}
	return StepResult{Action: action, Outcome: OutcomeDone, Output: output}, nil
}

// appURL looks up the deployed URL; failures only lose the URL
func (o *Orchestrator) appURL(ctx context.Context, appName string) string {
	app, err := GetApp(ctx, o.Runner, appName)
	if err != nil {
		internal.LogWarn("Could not read app URL: %v", err)
		return ""
	}
	return app.URL
}

func skippedDependency(a Action, skipped map[StepID]bool) (StepID, bool) {
	for _, dep := range a.DependsOn {
		if skipped[dep] {
			return dep, true
		}
	}
	return 0, false
}
