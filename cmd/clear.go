package cmd

import (
	"fmt"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved chats",
	Long:  `Clear the chat history by deleting every saved chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		if !clearYes {
			ok, err := newConfirmer().Confirm("Delete all saved chats?")
			if err != nil {
				return err
			}
			if !ok {
				internal.FprintInfo(cmd.OutOrStdout(), "Nothing deleted")
				return nil
			}
		}

		n, err := store.DeleteAll()
		if err != nil {
			return fmt.Errorf("failed to clear chat history: %w", err)
		}
		internal.FprintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %d chat(s)", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
}
