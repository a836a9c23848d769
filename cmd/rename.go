package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <chat-id> <name>",
	Short: "Rename a saved chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		session, err := loadChat(store, args[0])
		if err != nil {
			return err
		}
		if err := session.Rename(strings.Join(args[1:], " "), now()); err != nil {
			return err
		}
		if err := store.Save(session); err != nil {
			return fmt.Errorf("failed to save chat %s: %w", session.ChatID, err)
		}
		internal.FprintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Renamed %s to %q", session.ChatID, session.ChatName))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
