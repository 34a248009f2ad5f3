package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/logger"
)

// NewClipboardCmd creates the clipboard command
func NewClipboardCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipboard",
		Short: "Suggest expenses from copied payment notifications",
	}

	cmd.AddCommand(newClipboardCheckCmd(env))
	cmd.AddCommand(newClipboardWatchCmd(env))
	return cmd
}

func newClipboardCheckCmd(env *Env) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Read the clipboard once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				watcher := a.Service.Clipboard
				if !watcher.Poll(ctx) {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Nothing that looks like an expense on the clipboard"))
					return nil
				}
				suggestion, _ := watcher.Suggestion()
				printSuggestion(cmd.OutOrStdout(), suggestion)
				if !confirm {
					return nil
				}
				result, err := watcher.Confirm(ctx)
				if err != nil {
					return err
				}
				return env.renderResult(cmd, result)
			}, app.WithClipboardReader(env.Clipboard))
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Create the expense without asking")
	return cmd
}

func newClipboardWatchCmd(env *Env) *cobra.Command {
	var confirm bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the clipboard until interrupted",
		Long: `Watch polls the clipboard and prints each payment notification it finds.
With --confirm every suggestion is sent to the AI provider and stored as an expense.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := env.Clipboard.(clipboard.SystemReader); ok && !clipboard.Available() {
				return clipboard.ErrUnsupported
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				watcher := a.Service.Clipboard
				watcher.OnSuggestion(func(s clipboard.Suggestion) {
					printSuggestion(cmd.OutOrStdout(), s)
					if !confirm {
						return
					}
					result, err := watcher.Confirm(ctx)
					if err == nil {
						err = env.renderResult(cmd, result)
					}
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Error: "+err.Error()))
					}
				})

				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("Watching the clipboard, press Ctrl+C to stop"))
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}, app.WithClipboardReader(env.Clipboard), app.WithClipboardInterval(interval))
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Create an expense for every suggestion")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll period (default CLIPBOARD_INTERVAL)")
	return cmd
}

func printSuggestion(w io.Writer, s clipboard.Suggestion) {
	fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Possible expense:"), logger.SanitizePreview(s.Text))
}
