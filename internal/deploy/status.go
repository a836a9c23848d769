package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

// ErrAppNotFound is returned when the workspace has no app by that name
var ErrAppNotFound = errors.New("app not found")

// Health summarizes app and compute state
type Health string

const (
	HealthHealthy  Health = "Healthy"
	HealthStarting Health = "Starting"
	HealthIssue    Health = "Issue Detected"
)

// State is the state/message pair the apps API reports
type State struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

type Deployment struct {
	DeploymentID   string `json:"deployment_id"`
	Status         State  `json:"status"`
	CreateTime     string `json:"create_time"`
	UpdateTime     string `json:"update_time"`
	Creator        string `json:"creator"`
	SourceCodePath string `json:"source_code_path"`
}

// App is the subset of `apps get` output the CLI displays
type App struct {
	Name             string      `json:"name"`
	URL              string      `json:"url"`
	AppStatus        State       `json:"app_status"`
	ComputeStatus    State       `json:"compute_status"`
	ActiveDeployment *Deployment `json:"active_deployment"`
}

// AppStatus is the read-only status report
type AppStatus struct {
	App    App
	Health Health
	Recent []Deployment
}

// recentDeployments is how much history Status returns
const recentDeployments = 3

// ClassifyHealth maps app and compute states onto Health
func ClassifyHealth(appState, computeState string) Health {
	switch {
	case appState == "RUNNING" && computeState == "ACTIVE":
		return HealthHealthy
	case isStarting(appState) || isStarting(computeState):
		return HealthStarting
	}
	return HealthIssue
}

func isStarting(s string) bool {
	return s == "PENDING" || s == "STARTING"
}

// GetApp reads one app
func GetApp(ctx context.Context, runner workspace.Runner, name string) (*App, error) {
	res, err := runner.Run(ctx, []string{"apps", "get", name, "--output", "json"}, "")
	if err != nil {
		if workspace.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}
		return nil, err
	}
	var app App
	if err := workspace.DecodeJSON(res.Stdout, &app); err != nil {
		return nil, fmt.Errorf("failed to parse app data: %w", err)
	}
	return &app, nil
}

// ListApps returns the apps visible to the operator
func ListApps(ctx context.Context, runner workspace.Runner) ([]App, error) {
	res, err := runner.Run(ctx, []string{"apps", "list", "--output", "json"}, "")
	if err != nil {
		return nil, err
	}
	data, err := workspace.ExtractJSON(res.Stdout)
	if err != nil {
		return nil, nil
	}
	// newer CLIs print a bare array, older ones wrap it
	var apps []App
	if data[0] == '[' {
		if err := workspace.DecodeJSON(string(data), &apps); err != nil {
			return nil, err
		}
		return apps, nil
	}
	var wrapped struct {
		Apps []App `json:"apps"`
	}
	if err := workspace.DecodeJSON(string(data), &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Apps, nil
}

// Status reports health, URL and recent deployments without changing anything
func (o *Orchestrator) Status(ctx context.Context, appName string) (*AppStatus, error) {
	app, err := GetApp(ctx, o.Runner, appName)
	if err != nil {
		return nil, err
	}
	status := &AppStatus{
		App:    *app,
		Health: ClassifyHealth(app.AppStatus.State, app.ComputeStatus.State),
	}

	res, err := o.Runner.Run(ctx, []string{"apps", "list-deployments", appName, "--output", "json"}, "")
	if err == nil {
		status.Recent = parseDeployments(res.Stdout)
	}
	return status, nil
}

func parseDeployments(output string) []Deployment {
	data, err := workspace.ExtractJSON(output)
	if err != nil {
		return nil
	}
	var deployments []Deployment
	if data[0] == '[' {
		if workspace.DecodeJSON(string(data), &deployments) != nil {
			return nil
		}
	} else {
		var wrapped struct {
			Deployments []Deployment `json:"deployments"`
		}
		if workspace.DecodeJSON(string(data), &wrapped) != nil {
			return nil
		}
		deployments = wrapped.Deployments
	}
	if len(deployments) > recentDeployments {
		deployments = deployments[:recentDeployments]
	}
	return deployments
}

// TroubleshootingTips suggests next steps for an unhealthy app
func TroubleshootingTips(appState, computeState string) []string {
	var tips []string
	if appState != "RUNNING" {
		tips = append(tips,
			"App is not running:",
			"Check deployment logs for errors",
			"Verify app.yaml uses port 8501",
			"Check Unity Catalog permissions",
		)
	}
	if computeState != "ACTIVE" {
		tips = append(tips,
			"Compute issues detected:",
			"Wait for compute to start (can take 2-3 minutes)",
			"Check workspace compute limits",
		)
	}
	return tips
}
