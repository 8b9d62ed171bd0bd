// Package main provides a command line client for the copilot server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

var (
	serverURL string
	timeout   time.Duration
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "copilot",
		Short:         "Talk to the copilot server about your code",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", envOr("COPILOT_SERVER", "http://localhost:8000"), "Server base URL")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "Request timeout")

	cmd.AddCommand(chatCmd(), askCmd(), historyCmd(), revertCmd(), modifiedCmd(), treeCmd())
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func apiClient() *APIClient {
	return NewAPIClient(serverURL, timeout)
}

// wsURL turns the server base URL into the websocket endpoint.
func wsURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func workDir(dir string) string {
	if dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}

func askCmd() *cobra.Command {
	var (
		sessionID string
		dir       string
		files     []string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and apply the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := make([]domain.SelectedFile, 0, len(files))
			for _, f := range files {
				selected = append(selected, domain.SelectedFile{Name: f, Path: f})
			}

			resp, err := apiClient().Ask(cmd.Context(), domain.AskRequest{
				SessionID:     sessionID,
				Question:      strings.Join(args, " "),
				SelectedFiles: selected,
				DirectoryPath: workDir(dir),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderAnswer(resp.Answer, resp.Changes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "default", "Session id")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Project directory (default: current directory)")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "File to include (relative to --dir); needs CODE in the question")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <session>",
		Short: "Show the exchanges of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient().History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistory(resp.Exchanges))
			return nil
		},
	}
}

func revertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <file>",
		Short: "Restore a file to its content before the last modification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient().Revert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okText(resp.Detail+" "+resp.FilePath))
			return nil
		},
	}
}

func modifiedCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "modified",
		Short: "List files that can be reverted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := apiClient().Modified(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderModified(files))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Only list files under this directory")
	return cmd
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [dir]",
		Short: "Show the files the server sees under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			resp, err := apiClient().Tree(cmd.Context(), workDir(dir))
			if err != nil {
				return err
			}
			if resp.Error != "" {
				return fmt.Errorf("%s", resp.Error)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(resp.Files))
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	var (
		sessionID string
		chatName  string
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			addr := wsURL(serverURL)
			fmt.Fprintf(out, "Connecting to %s...\n", addr)

			client, err := DialChat(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Hello(sessionID, chatName); err != nil {
				return err
			}
			fmt.Fprintf(out, "Session %s established\n", client.sessionID)
			fmt.Fprintln(out, "Commands: /history, /revert <file>, /quit")

			readErr := make(chan error, 1)
			go func() { readErr <- client.ReadMessages(out) }()

			return chatLoop(cmd.Context(), client, cmd.InOrStdin(), workDir(dir), readErr)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id (default: new session)")
	cmd.Flags().StringVarP(&chatName, "name", "n", "", "Chat name for a new session")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Project directory (default: current directory)")
	return cmd
}

type chatSender interface {
	Ask(question, dir string) error
	RequestHistory() error
	Revert(path string) error
}

func chatLoop(ctx context.Context, client chatSender, in io.Reader, dir string, readErr <-chan error) error {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := dispatchLine(client, strings.TrimSpace(line), dir); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
}

var errQuit = errors.New("quit")

func dispatchLine(client chatSender, line, dir string) error {
	switch {
	case line == "":
		return nil
	case line == "/quit":
		return errQuit
	case line == "/history":
		return client.RequestHistory()
	case strings.HasPrefix(line, "/revert "):
		return client.Revert(strings.TrimSpace(strings.TrimPrefix(line, "/revert ")))
	default:
		return client.Ask(line, dir)
	}
}
