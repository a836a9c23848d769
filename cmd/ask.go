package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/assistant"
	"github.com/iksnae/databricks-chatbot/internal/chatstore"
	"github.com/iksnae/databricks-chatbot/internal/config"
	"github.com/iksnae/databricks-chatbot/internal/credentials"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	askChatID string
	askNew    bool
)

// newCompleter is swapped out in tests
var newCompleter = func(cfg *config.Config, apiKey string) assistant.Completer {
	return assistant.NewOpenAIClient(apiKey, cfg.OpenAIBaseURL)
}

// now is swapped out in tests
var now = time.Now

var askCmd = &cobra.Command{
	Use:   "ask [--chat-id ID | --new] <message>",
	Short: "Send a message to the assistant",
	Long: `Send a message to the assistant and save the exchange.

Without flags the most recently updated chat is continued. Use --new to
start a fresh chat, or --chat-id to continue a specific one. New chats are
named from their first message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askNew && askChatID != "" {
			return fmt.Errorf("--new and --chat-id cannot be used together")
		}
		input := strings.TrimSpace(strings.Join(args, " "))
		if input == "" {
			return fmt.Errorf("message must not be empty")
		}

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		ctx := cmd.Context()
		provider := credentials.ForRuntime(os.LookupEnv, workspace.NewCLIRunner(cfg.DatabricksCLI), cfg.SecretScope, cfg.SecretKey, cfg.OpenAIAPIKey)
		apiKey, err := provider.APIKey(ctx)
		if err != nil {
			return err
		}
		completer := newCompleter(cfg, apiKey)

		session, err := selectSession(store)
		if err != nil {
			return err
		}

		reply, err := exchange(ctx, completer, cfg, store, session, input)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, assistantMessageStyle.Render("🤖 Assistant"))
		fmt.Fprintln(out, messageContentStyle.Render(reply))
		fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("%s (%s)", session.ChatName, session.ChatID)))
		return nil
	},
}

// selectSession resolves the chat the message goes to
func selectSession(store chatstore.Store) (*chatstore.ChatSession, error) {
	if askChatID != "" {
		return loadChat(store, askChatID)
	}
	if !askNew {
		listing, err := store.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		if len(listing.Sessions) > 0 {
			return store.Load(listing.Sessions[0].ChatID)
		}
	}
	return chatstore.NewSession("", now()), nil
}

// exchange asks for a reply and saves both turns. A failed completion leaves
// the session unchanged.
func exchange(ctx context.Context, c assistant.Completer, cfg *config.Config, store chatstore.Store, session *chatstore.ChatSession, input string) (string, error) {
	req := assistant.Request{
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		SystemPrompt: cfg.SystemPrompt,
		History:      session.Messages,
		Input:        input,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	var reply string
	err := internal.ShowProgress(ctx, "Waiting for the assistant", func() error {
		var err error
		reply, err = c.Complete(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}

	first := len(session.Messages) == 0
	ts := now()
	if err := session.AppendMessage(chatstore.RoleUser, input, ts); err != nil {
		return "", err
	}
	if err := session.AppendMessage(chatstore.RoleAssistant, reply, now()); err != nil {
		return "", err
	}

	if first {
		name, err := assistant.GenerateChatName(ctx, c, cfg.Model, input, session.CreatedAt.Local())
		if err != nil {
			internal.LogWarn("Could not generate chat name: %v", err)
		} else if err := session.Rename(name, session.UpdatedAt); err != nil {
			internal.LogWarn("Could not rename chat: %v", err)
		}
	}

	if err := store.Save(session); err != nil {
		return "", fmt.Errorf("failed to save chat %s: %w", session.ChatID, err)
	}
	internal.LogDebug("Saved chat %s with %d message(s)", session.ChatID, len(session.Messages))
	return reply, nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askChatID, "chat-id", "", "Continue the chat with this ID")
	askCmd.Flags().BoolVar(&askNew, "new", false, "Start a new chat")
}
