package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade legacy chat files to the current format",
	Long: `Rewrite chats saved with the old id/name keys to chat_id/chat_name and
move chat_<id>.json files to <id>.json. Running it again changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		var report *chatstore.MigrationReport
		err = internal.ShowProgress(cmd.Context(), "Migrating saved chats", func() error {
			var err error
			report, err = store.MigrateLegacyFormat()
			return err
		})
		if report != nil {
			printMigrationReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	},
}

func printMigrationReport(out io.Writer, r *chatstore.MigrationReport) {
	if !r.Changed() {
		internal.FprintInfo(out, fmt.Sprintf("Nothing to migrate (%d chat(s) already current)", len(r.Current)))
	} else {
		internal.FprintSuccess(out, fmt.Sprintf("Migrated %d chat(s), renamed %d file(s)", len(r.Migrated), len(r.Renamed)))
		for _, id := range r.Migrated {
			fmt.Fprintf(out, "   migrated %s\n", id)
		}
		for _, id := range r.Renamed {
			fmt.Fprintf(out, "   renamed  %s\n", id)
		}
	}
	for _, s := range r.Skipped {
		internal.FprintWarning(out, fmt.Sprintf("Skipped %s: %s", s.Path, s.Reason))
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
