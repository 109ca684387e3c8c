package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/worldrag/internal/chatclient"
)

func newChatCmd() *cobra.Command {
	var (
		addr      string
		sessionID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running worldrag server from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := exitOnSignal(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connecting to %s...\n", addr)

			client, err := chatclient.Dial(ctx, addr, sessionID, timeout)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer client.Close()

			fmt.Fprintln(out, "Type a question and press Enter. Commands: /quit to exit")

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			for {
				fmt.Fprint(out, "> ")
				var input string
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "\nInterrupted")
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					input = strings.TrimSpace(line)
				}

				if input == "" {
					continue
				}
				if input == "/quit" {
					fmt.Fprintln(out, "Bye!")
					return nil
				}

				frame, err := client.Ask(input)
				var frameErr *chatclient.FrameError
				switch {
				case errors.As(err, &frameErr):
					fmt.Fprintf(out, "error: %s\n", frameErr.Message)
					continue
				case err != nil:
					return err
				}

				fmt.Fprintf(out, "\n%s\n", frame.Response)
				for i, lookup := range frame.DBLookup {
					fmt.Fprintf(out, "  [%d] %v\n", i+1, lookup.Metadata["source"])
				}
				fmt.Fprintln(out)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/api/llmchat/ws", "websocket chat address")
	cmd.Flags().StringVar(&sessionID, "session", "", "resume this session id")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "per-question timeout")
	return cmd
}
