package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved chats",
	Long:  `List saved chat sessions, most recently updated first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		listing, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list chats: %w", err)
		}
		displayListing(cmd.OutOrStdout(), listing, now())
		return nil
	},
}

func displayListing(out io.Writer, listing *chatstore.Listing, now time.Time) {
	if len(listing.Sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No saved chats"))
	} else {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d chat(s)", len(listing.Sessions))))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

		for _, s := range listing.Sessions {
			name := s.ChatName
			if name == "" {
				name = "Untitled"
			}
			if len(name) > 50 {
				name = name[:47] + "..."
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				idStyle.Render(s.ChatID),
				name,
				countStyle.Render(strconv.Itoa(s.MessageCount)),
				dateStyle.Render(relativeDate(s.UpdatedAt, now)))
		}
		_ = w.Flush()
	}

	if len(listing.Skipped) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  Skipped %d unreadable file(s):", len(listing.Skipped))))
		for _, s := range listing.Skipped {
			fmt.Fprintf(out, "   %s: %s\n", s.Path, s.Reason)
		}
	}
}

func relativeDate(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	}
	return t.Format("2006-01-02")
}

func init() {
	rootCmd.AddCommand(listCmd)
}
