package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/iksnae/databricks-chatbot/internal/config"
	"github.com/iksnae/databricks-chatbot/internal/deploy"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	chatDir   string
	storeKind string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "databricks-chatbot",
	Short: "Chat with an AI assistant and deploy it as a Databricks App",
	Long: `A CLI for the Databricks AI chatbot.

It keeps a local history of chat sessions, talks to the configured OpenAI
model, and provisions and deploys the chatbot to a Databricks workspace.

Features:
  • Persistent chat history (JSON files or SQLite)
  • Migration of legacy chat files to the current format
  • Export in multiple formats (JSONL, Markdown, YAML, JSON)
  • One-command deployment with dry-run, interactive and status modes

Quick Start:
  databricks-chatbot ask --new "What is Unity Catalog?"
  databricks-chatbot list
  databricks-chatbot deploy --dry-run`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&chatDir, "chat-dir", "", "Chat history directory (overrides CHAT_HISTORY_DIR)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Chat store backend: file or sqlite (overrides CHAT_STORE)")
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// newConfirmer is swapped out in tests
var newConfirmer = func() deploy.Confirmer {
	return internal.NewTerminalConfirmer()
}

// loadConfig reads the environment and applies persistent flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if chatDir != "" {
		cfg.ChatDir = chatDir
		if os.Getenv("CHAT_SQLITE_PATH") == "" {
			cfg.SQLitePath = config.SQLitePathFor(chatDir)
		}
	}
	if storeKind != "" {
		cfg.Store = strings.ToLower(storeKind)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore loads config and opens the configured chat store
func openStore() (chatstore.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := chatstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open chat store: %w", err)
	}
	return store, cfg, nil
}

func closeStore(store chatstore.Store) {
	if err := store.Close(); err != nil {
		internal.LogWarn("Failed to close chat store: %v", err)
	}
}
