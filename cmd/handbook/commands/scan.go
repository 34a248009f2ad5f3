package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/handlers"
	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/models"
)

// NewScanCmd creates the scan command
func NewScanCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Turn screenshots or copied text into entries with AI",
		Long: `Scan sends a screenshot or a piece of text to the configured AI provider.
An invite becomes a reminder; a receipt or payment message becomes an expense.`,
	}

	for _, intent := range []ingest.Intent{ingest.IntentInvite, ingest.IntentReceipt} {
		cmd.AddCommand(newScanImageCmd(env, intent))
	}
	cmd.AddCommand(newScanTextCmd(env))
	return cmd
}

func newScanImageCmd(env *Env, intent ingest.Intent) *cobra.Command {
	return &cobra.Command{
		Use:   string(intent) + " <image-file>",
		Short: "Scan a " + string(intent) + " screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, mimeType, err := readImageFile(args[0])
			if err != nil {
				return err
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return env.renderResult(cmd, a.Service.Assistant.Scan(ctx, intent, image, mimeType))
			})
		},
	}
}

func newScanTextCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "text <text|->",
		Short: "Confirm notification text as an expense",
		Long: `Text confirms a payment notification as if it had been suggested from the clipboard
and extracts an expense from it. Text that would not be suggested is rejected.
Pass - to read the text from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), handlers.MaxImageBytes))
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return fmt.Errorf("text is required")
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.Clipboard.ConfirmText(ctx, text)
				if errors.Is(err, clipboard.ErrNotExpense) {
					return fmt.Errorf("%w: %s", err, logger.SanitizePreview(text))
				}
				if err != nil {
					return err
				}
				return env.renderResult(cmd, result)
			})
		},
	}
}

// readImageFile loads an image and sniffs its MIME type
func readImageFile(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if info.Size() > handlers.MaxImageBytes {
		return nil, "", fmt.Errorf("image exceeds maximum size of %d bytes", handlers.MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image file %s is empty", path)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("%s is not an image (detected %s)", path, mimeType)
	}
	return data, mimeType, nil
}

// renderResult prints the created record, or returns the extraction failure
func (e *Env) renderResult(cmd *cobra.Command, result ingest.Result) error {
	if !result.OK() {
		return fmt.Errorf("scan failed: %w", result.Err)
	}
	if err := checkStore(cmd, result.Warning); err != nil {
		return err
	}

	return e.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
		switch {
		case result.Reminder != nil:
			fmt.Fprintln(w, successStyle.Render("Created reminder"))
			return printReminders(w, []models.Reminder{*result.Reminder})
		case result.Transaction != nil:
			fmt.Fprintln(w, successStyle.Render("Created transaction"))
			return printTransactions(w, []models.Transaction{*result.Transaction})
		}
		return nil
	})
}
