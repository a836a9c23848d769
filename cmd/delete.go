package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <chat-id>...",
	Short: "Delete saved chats",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		var failed int
		for _, id := range args {
			if err := store.Delete(id); err != nil {
				failed++
				if errors.Is(err, chatstore.ErrNotFound) {
					internal.FprintWarning(cmd.ErrOrStderr(), fmt.Sprintf("No saved chat %s", id))
					continue
				}
				internal.FprintError(cmd.ErrOrStderr(), fmt.Sprintf("Failed to delete %s: %v", id, err))
				continue
			}
			internal.FprintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %s", id))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d chat(s) could not be deleted", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
