package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"career-mentor/internal/app"
	"career-mentor/internal/conversation"
	"career-mentor/internal/telegram"
)

func newChatCommand() *cobra.Command {
	var identity, field string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the interview interactively on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sid := app.NewSessionID()
			if field != "" {
				a.SetField(sid, identity, field)
			}
			out := cmd.OutOrStdout()
			reply, err := a.Start(ctx, sid, identity)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n\n> ", reply.Text)

			in := bufio.NewScanner(cmd.InOrStdin())
			for in.Scan() {
				text := strings.TrimSpace(in.Text())
				switch text {
				case "":
					fmt.Fprint(out, "> ")
					continue
				case "/quit", "/exit":
					return nil
				case "/status":
					fmt.Fprintf(out, "%s\n\n> ", telegram.FormatStatus(a.Status(sid, identity)))
					continue
				}
				reply, err := a.Send(ctx, sid, identity, text)
				var limited *conversation.RateLimitError
				switch {
				case errors.As(err, &limited):
					fmt.Fprintf(out, "%s\n\n> ", telegram.FormatRateLimited(limited.Info))
					continue
				case err != nil:
					return err
				}
				if reply.Roadmap != nil {
					fmt.Fprintf(out, "\n%s\n", telegram.FormatRoadmap(*reply.Roadmap))
				}
				fmt.Fprintf(out, "\n%s\n\n> ", reply.Text)
			}
			return in.Err()
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "cli", "identity the rate limiter counts against")
	cmd.Flags().StringVar(&field, "field", "", "field to use instead of the preferred-field answer")
	return cmd
}
