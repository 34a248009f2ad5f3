package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/config"
	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/store"
)

// Output formats accepted by --output
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// OpenFunc opens the Handbook the commands operate on
type OpenFunc func(ctx context.Context, debugMode bool, opts ...app.Option) (*app.App, error)

// Env is the state shared by every subcommand
type Env struct {
	Debug  bool
	Output string
	Open   OpenFunc
	// Clipboard is read by the clipboard commands
	Clipboard clipboard.Reader
}

// NewEnv returns an Env that opens the Handbook described by the environment
func NewEnv() *Env {
	return &Env{Output: OutputText, Open: openFromConfig, Clipboard: clipboard.SystemReader{}}
}

func openFromConfig(ctx context.Context, debugMode bool, opts ...app.Option) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger, err := logger.NewCLILogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a, err := app.Open(ctx, cfg, zapLogger, debugMode, opts...)
	if err != nil {
		_ = logger.Sync(zapLogger)
		return nil, err
	}
	return a, nil
}

// NewRootCmd builds the handbook command tree
func NewRootCmd(env *Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "handbook",
		Short: "Personal assistant, budget and to-do store",
		Long: `Handbook keeps reminders, expenses, to-dos and recurring habits in local storage.
Screenshots and copied notification text can be turned into entries with the configured AI provider.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch env.Output {
			case OutputText, OutputJSON, OutputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want %s, %s or %s)", env.Output, OutputText, OutputJSON, OutputYAML)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&env.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&env.Output, "output", "o", OutputText, "Output format: text, json or yaml")

	rootCmd.AddCommand(NewRemindersCmd(env))
	rootCmd.AddCommand(NewBudgetCmd(env))
	rootCmd.AddCommand(NewTodosCmd(env))
	rootCmd.AddCommand(NewRecurringCmd(env))
	rootCmd.AddCommand(NewScanCmd(env))
	rootCmd.AddCommand(NewClipboardCmd(env))
	rootCmd.AddCommand(NewSettingsCmd(env))
	rootCmd.AddCommand(NewHealthCmd(env))

	return rootCmd
}

// withApp opens the Handbook, runs fn and closes storage again
func (e *Env) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error, opts ...app.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := e.Open(ctx, e.Debug, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close storage: %v\n", err)
		}
	}()

	return fn(ctx, a)
}

// render writes v in the selected structured format, or calls text for the text format
func (e *Env) render(w io.Writer, v any, text func(w io.Writer) error) error {
	switch e.Output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json output: %w", err)
		}
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
	default:
		return text(w)
	}
	return nil
}

// checkStore prints store warnings and returns only hard failures.
// A warning means the change was applied in memory but could not be persisted.
func checkStore(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if store.IsRecoverable(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Warning: "+err.Error()))
		return nil
	}
	return err
}
