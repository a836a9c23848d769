package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/databricks-chatbot/internal/config"
	"github.com/iksnae/databricks-chatbot/internal/credentials"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// newRunner is swapped out in tests
var newRunner = func(binary string) workspace.Runner {
	return workspace.NewCLIRunner(binary)
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that chats, the Databricks CLI and the API key are usable",
	Long: `Check the health of databricks-chatbot by verifying:
  • Chat store accessibility and chat count
  • Databricks CLI availability
  • OpenAI API key resolution

The CLI and API key checks warn instead of failing, since chatting works
without the CLI and deploying works without a local API key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Databricks Chatbot Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Opening chat store..."))
		store, cfg, err := openStore()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Chat store unavailable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer closeStore(store)
		listing, err := store.List()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to read chats:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s store readable, %d chat(s)", cfg.Store, len(listing.Sessions))))
		if verbose {
			fmt.Fprintf(out, "   Directory: %s\n", cfg.ChatDir)
			if cfg.Store == config.StoreSQLite {
				fmt.Fprintf(out, "   Database: %s\n", cfg.SQLitePath)
			}
		}
		if len(listing.Skipped) > 0 {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d unreadable chat file(s), run 'databricks-chatbot list' for details", len(listing.Skipped))))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking Databricks CLI..."))
		runner := newRunner(cfg.DatabricksCLI)
		cliOK := checkCLI(cmd, out, runner)
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Resolving OpenAI API key..."))
		provider := credentials.ForRuntime(os.LookupEnv, runner, cfg.SecretScope, cfg.SecretKey, cfg.OpenAIAPIKey)
		_, keyErr := provider.APIKey(cmd.Context())
		if keyErr != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  "+keyErr.Error()))
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ API key available from "+provider.Name()))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if cliOK && keyErr == nil {
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Chat store is working, see warnings above"))
		}
		return nil
	},
}

func checkCLI(cmd *cobra.Command, out io.Writer, runner workspace.Runner) bool {
	res, err := runner.Run(cmd.Context(), []string{"version"}, "")
	if err != nil {
		if errors.Is(err, workspace.ErrCLINotFound) {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Databricks CLI not installed"))
			fmt.Fprintln(out, "   Install it: https://docs.databricks.com/dev-tools/cli/install.html")
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Databricks CLI failed:"), err)
		}
		return false
	}
	fmt.Fprintln(out, successStyle.Render("✅ Databricks CLI available"))
	if verbose {
		fmt.Fprintf(out, "   %s\n", strings.TrimSpace(res.Stdout))
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
