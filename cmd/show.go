package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/spf13/cobra"
)

var showLimit int

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var showCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Show messages for a saved chat",
	Long:  `Display the messages of a saved chat session.`,
	Args:  cobra.ExactArgs(1),
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
		displaySession(cmd.OutOrStdout(), session, showLimit)
		return nil
	},
}

// loadChat adds a hint to not-found errors
func loadChat(store chatstore.Store, chatID string) (*chatstore.ChatSession, error) {
	session, err := store.Load(chatID)
	if errors.Is(err, chatstore.ErrNotFound) {
		return nil, fmt.Errorf("%w (use 'databricks-chatbot list' to see saved chats)", err)
	}
	return session, err
}

func displaySession(out io.Writer, s *chatstore.ChatSession, limit int) {
	fmt.Fprintln(out, sessionHeaderStyle.Render("💬 "+s.ChatName))
	fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("ID: %s  •  Updated: %s  •  %d message(s)",
		s.ChatID, chatstore.FormatStamp(s.UpdatedAt.Local()), len(s.Messages))))
	fmt.Fprintln(out)

	messages := s.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	if len(messages) == 0 {
		fmt.Fprintln(out, sessionMetaStyle.Render("No messages yet"))
		return
	}

	for _, m := range messages {
		label := userMessageStyle.Render("👤 You")
		switch m.Role {
		case chatstore.RoleAssistant:
			label = assistantMessageStyle.Render("🤖 Assistant")
		case chatstore.RoleSystem:
			label = sessionMetaStyle.Render("⚙️  System")
		}
		stamp := ""
		if !m.Timestamp.IsZero() {
			stamp = " " + timestampStyle.Render(m.Timestamp.Local().Format("15:04"))
		}
		fmt.Fprintln(out, label+stamp)
		fmt.Fprintln(out, messageContentStyle.Render(strings.TrimSpace(m.Content)))
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Show only the last N messages")
}
