package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/iksnae/databricks-chatbot/internal/export"
	"github.com/spf13/cobra"
)

var (
	format       string
	outputDir    string
	exportChatID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved chats to files",
	Long: `Export saved chats to various formats (jsonl, md, yaml, json).

All chats are exported unless --chat-id names one.
Use 'databricks-chatbot list' to see saved chat IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		var sessions []*chatstore.ChatSession
		if exportChatID != "" {
			session, err := loadChat(store, exportChatID)
			if err != nil {
				return err
			}
			sessions = append(sessions, session)
		} else {
			listing, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list chats: %w", err)
			}
			for _, s := range listing.Skipped {
				internal.LogWarn("Not exporting %s: %s", s.Path, s.Reason)
			}
			for _, summary := range listing.Sessions {
				session, err := store.Load(summary.ChatID)
				if err != nil {
					internal.LogWarn("Failed to load chat %s: %v", summary.ChatID, err)
					continue
				}
				sessions = append(sessions, session)
			}
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d chat(s) to %s", len(sessions), outputDir), func() error {
			for _, session := range sessions {
				path := filepath.Join(outputDir, export.FileName(session, exporter))

				file, err := os.Create(path)
				if err != nil {
					internal.LogError("Failed to create file %s: %v", path, err)
					continue
				}

				if err := exporter.Export(session, file); err != nil {
					_ = file.Close()
					internal.LogError("Failed to export chat %s: %v", session.ChatID, err)
					continue
				}

				if err := file.Close(); err != nil {
					internal.LogWarn("Failed to close file %s: %v", path, err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		internal.FprintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d chat(s) exported to %s", exported, outputDir))
		if exported < len(sessions) {
			return fmt.Errorf("%d chat(s) failed to export", len(sessions)-exported)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&exportChatID, "chat-id", "", "Export a specific chat by ID")
}
