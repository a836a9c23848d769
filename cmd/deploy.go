package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/credentials"
	"github.com/iksnae/databricks-chatbot/internal/deploy"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	deployDryRun      bool
	deployInteractive bool
	deployRedeploy    bool
	deployStatus      bool
	deployUser        string
	deployAppName     string
	deployScope       string
	deploySecretKey   string
	deploySource      string
	deployAppYAML     string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the chatbot as a Databricks App",
	Long: `Provision and deploy the chatbot to a Databricks workspace.

A full deployment runs five steps: create the secret scope, store the
OpenAI API key, create the app, sync the source and deploy it. Scope and
app names are derived from your user name so operators sharing a workspace
do not collide. Resources that already exist are reused.

Modes:
  --dry-run      show every command without running anything
  --interactive  confirm each step before running it
  --redeploy     sync and deploy only, for code changes
  --status       show app health and recent deployments`,
	Example: `  databricks-chatbot deploy
  databricks-chatbot deploy --dry-run
  databricks-chatbot deploy --redeploy
  databricks-chatbot deploy --status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDeployFlags(); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		apiKey := ""
		if !deployDryRun && !deployRedeploy && !deployStatus {
			if apiKey, err = credentials.NewEnvProvider(cfg.OpenAIAPIKey).APIKey(ctx); err != nil {
				return err
			}
		}
		runner := newRunner(cfg.DatabricksCLI)

		target, host, err := resolveTarget(ctx, runner)
		if err != nil {
			return err
		}
		appYAML := deployAppYAML
		if appYAML == "" {
			appYAML = filepath.Join(target.SourceDir, "app.yaml")
		}

		o := &deploy.Orchestrator{
			Runner:      runner,
			Confirm:     newConfirmer(),
			Out:         out,
			DryRun:      deployDryRun,
			Interactive: deployInteractive,
			AppYAMLPath: appYAML,
			Progress:    internal.ShowProgress,
		}

		if deployStatus {
			return runStatus(ctx, out, o, target.AppName)
		}

		if deployRedeploy {
			if err := applyAppConfig(target, appYAML); err != nil {
				return err
			}
		}
		printTarget(out, target, host)

		var report *deploy.Report
		if deployRedeploy {
			report, err = o.Redeploy(ctx, target)
		} else {
			report, err = o.Deploy(ctx, target, apiKey)
		}
		if err != nil {
			printFailure(cmd.ErrOrStderr(), err)
			return err
		}
		printReport(out, report)
		return nil
	},
}

func checkDeployFlags() error {
	if deployDryRun && deployRedeploy {
		return errors.New("--dry-run cannot be combined with --redeploy")
	}
	if deployStatus && (deployDryRun || deployRedeploy) {
		return errors.New("--status cannot be combined with --dry-run or --redeploy")
	}
	return nil
}

// resolveTarget derives names from --user or the logged-in CLI user
func resolveTarget(ctx context.Context, runner workspace.Runner) (*deploy.Target, string, error) {
	email, host := deployUser, ""
	if email == "" {
		id, err := deploy.ResolveIdentity(ctx, runner)
		if err != nil {
			return nil, "", err
		}
		email, host = id.Email, id.Host
	}

	target, err := deploy.DeriveTarget(email)
	if err != nil {
		return nil, "", err
	}
	if deploySource != "" {
		target.SourceDir = deploySource
	}
	if deployAppName != "" {
		target.SetAppName(deployAppName)
	}
	if deployScope != "" {
		target.ScopeName = deployScope
	}
	if deploySecretKey != "" {
		target.SecretKey = deploySecretKey
	}
	return target, host, nil
}

// applyAppConfig reuses the scope and secret an earlier deploy wrote
func applyAppConfig(target *deploy.Target, path string) error {
	cfg, err := deploy.LoadAppConfig(path)
	if err != nil {
		return err
	}
	scope, key, ok := cfg.SecretRef()
	if !ok {
		internal.LogWarn("No secret reference in %s, using derived names", path)
		return nil
	}
	if deployScope == "" {
		target.ScopeName = scope
	}
	if deploySecretKey == "" {
		target.SecretKey = key
	}
	return nil
}

func printTarget(out io.Writer, t *deploy.Target, host string) {
	fmt.Fprintln(out, sectionStyle.Render("🚀 Databricks Chatbot Deployment"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   User:      %s\n", t.UserEmail)
	if host != "" {
		fmt.Fprintf(out, "   Workspace: %s\n", host)
	}
	fmt.Fprintf(out, "   App:       %s\n", t.AppName)
	fmt.Fprintf(out, "   Scope:     %s\n", t.ScopeName)
	fmt.Fprintf(out, "   Path:      %s\n", t.WorkspacePath)
	fmt.Fprintln(out)
}

func printFailure(out io.Writer, err error) {
	var stepErr *deploy.StepError
	if !errors.As(err, &stepErr) {
		return
	}
	d := deploy.Diagnose(stepErr.Message())
	fmt.Fprintln(out, errorStyle.Render("❌ "+d.Title))
	for _, s := range d.Suggestions {
		fmt.Fprintf(out, "   • %s\n", s)
	}
}

func printReport(out io.Writer, r *deploy.Report) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	for _, s := range r.Steps {
		fmt.Fprintf(out, "   Step %d %-22s %s\n", int(s.Action.Step), s.Action.Step.String(), outcomeLabel(s.Outcome))
	}
	fmt.Fprintln(out)

	if r.DryRun {
		internal.FprintInfo(out, "Dry run complete, nothing was changed")
		return
	}
	internal.FprintSuccess(out, "Deployment complete")
	if r.AppURL != "" {
		fmt.Fprintf(out, "   App URL: %s\n", r.AppURL)
	}
	fmt.Fprintln(out, "   Check status: databricks-chatbot deploy --status")
	fmt.Fprintln(out, "   Update code:  databricks-chatbot deploy --redeploy")
}

func outcomeLabel(o deploy.Outcome) string {
	switch o {
	case deploy.OutcomeDone:
		return successStyle.Render("done")
	case deploy.OutcomeExists:
		return infoStyle.Render("already exists")
	case deploy.OutcomeSkipped:
		return warningStyle.Render("skipped")
	}
	return string(o)
}

func runStatus(ctx context.Context, out io.Writer, o *deploy.Orchestrator, appName string) error {
	status, err := o.Status(ctx, appName)
	if err != nil {
		if errors.Is(err, deploy.ErrAppNotFound) {
			return fmt.Errorf("%w, deploy it first with: databricks-chatbot deploy", err)
		}
		return err
	}

	app := status.App
	fmt.Fprintln(out, sectionStyle.Render("📊 App Status: "+app.Name))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   App state:     %s\n", stateLine(app.AppStatus))
	fmt.Fprintf(out, "   Compute state: %s\n", stateLine(app.ComputeStatus))
	if app.URL != "" {
		fmt.Fprintf(out, "   URL:           %s\n", app.URL)
	}
	if d := app.ActiveDeployment; d != nil {
		fmt.Fprintf(out, "   Active deployment: %s (%s)\n", d.DeploymentID, d.Status.State)
	}

	if len(status.Recent) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Recent deployments"))
		for _, d := range status.Recent {
			line := fmt.Sprintf("   %s  %s", d.DeploymentID, d.Status.State)
			if d.CreateTime != "" {
				line += "  " + dateStyle.Render(d.CreateTime)
			}
			fmt.Fprintln(out, line)
		}
	}
	fmt.Fprintln(out)

	switch status.Health {
	case deploy.HealthHealthy:
		fmt.Fprintln(out, successStyle.Render("✅ "+string(status.Health)))
	case deploy.HealthStarting:
		fmt.Fprintln(out, warningStyle.Render("⏳ "+string(status.Health)))
	default:
		fmt.Fprintln(out, errorStyle.Render("❌ "+string(status.Health)))
		for _, tip := range deploy.TroubleshootingTips(app.AppStatus.State, app.ComputeStatus.State) {
			if strings.HasSuffix(tip, ":") {
				fmt.Fprintf(out, "   %s\n", tip)
				continue
			}
			fmt.Fprintf(out, "     • %s\n", tip)
		}
	}
	return nil
}

func stateLine(s deploy.State) string {
	if s.State == "" {
		return "UNKNOWN"
	}
	if s.Message != "" {
		return fmt.Sprintf("%s (%s)", s.State, s.Message)
	}
	return s.State
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().BoolVarP(&deployDryRun, "dry-run", "d", false, "Show what would be done without changing anything")
	deployCmd.Flags().BoolVarP(&deployInteractive, "interactive", "i", false, "Confirm each step before running it")
	deployCmd.Flags().BoolVarP(&deployRedeploy, "redeploy", "r", false, "Sync and deploy only")
	deployCmd.Flags().BoolVarP(&deployStatus, "status", "s", false, "Show app status")
	deployCmd.Flags().StringVar(&deployUser, "user", "", "User e-mail (default: the logged-in CLI user)")
	deployCmd.Flags().StringVar(&deployAppName, "app-name", "", "App name (default: <user>-ai-chatbot)")
	deployCmd.Flags().StringVar(&deployScope, "scope", "", "Secret scope (default: <user>-chatbot)")
	deployCmd.Flags().StringVar(&deploySecretKey, "secret-key", "", "Secret key name (default: "+deploy.DefaultSecretKey+")")
	deployCmd.Flags().StringVar(&deploySource, "source", "", "Source directory to sync (default: .)")
	deployCmd.Flags().StringVar(&deployAppYAML, "app-yaml", "", "app.yaml path (default: <source>/app.yaml)")
}
