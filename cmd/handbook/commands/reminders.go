package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

const whenLayout = "Mon Jan 2 2006 15:04"

// NewRemindersCmd creates the reminders command
func NewRemindersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"reminder", "assistant"},
		Short:   "Manage Assistant reminders",
	}

	cmd.AddCommand(newRemindersListCmd(env))
	cmd.AddCommand(newRemindersAddCmd(env))
	cmd.AddCommand(newRemindersDeleteCmd(env))
	return cmd
}

func newRemindersListCmd(env *Env) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := handbook.ParseSortDirection(order)
			if err != nil {
				return err
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				reminders, err := a.Service.Assistant.List(ctx, dir)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to list reminders: %w", err)
				}
				return env.render(cmd.OutOrStdout(), reminders, func(w io.Writer) error {
					return printReminders(w, reminders)
				})
			})
		},
	}
	cmd.Flags().StringVar(&order, "order", "asc", "Sort order: asc or desc")
	return cmd
}

func newRemindersAddCmd(env *Env) *cobra.Command {
	var in handbook.ManualReminderInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reminder by hand",
		Example: `  handbook reminders add --title "Dentist" --date 2024-05-02 --time 09:30
  handbook reminders add --title "Team lunch" --date 2024-05-03 --time 12:00 --location "Cafe"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				reminder, err := a.Service.Assistant.AddManual(ctx, in)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to add reminder: %w", err)
				}
				return env.render(cmd.OutOrStdout(), reminder, func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s\n", successStyle.Render("Added reminder"), reminder.ID)
					return printReminders(w, []models.Reminder{reminder})
				})
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Reminder title")
	cmd.Flags().StringVar(&in.Date, "date", "", "Date as YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Time, "time", "", "Time as HH:MM")
	cmd.Flags().StringVar(&in.Location, "location", "", "Location (default \""+handbook.DefaultManualLocation+"\")")
	return cmd
}

func newRemindersDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete one or more reminders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				assistant := a.Service.Assistant
				if len(args) == 1 {
					if err := checkStore(cmd, assistant.Delete(ctx, args[0])); err != nil {
						return fmt.Errorf("failed to delete reminder %s: %w", args[0], err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %s\n", args[0])
					return nil
				}

				assistant.Selection().Set(args)
				removed, err := assistant.DeleteSelected(ctx)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to delete reminders: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d reminders\n", removed, len(args))
				return nil
			})
		},
	}
}

func printReminders(w io.Writer, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No reminders"))
		return nil
	}

	rows := make([][]string, 0, len(reminders))
	for _, r := range reminders {
		when := r.DateTime
		if t, ok := r.When(); ok {
			when = t.Format(whenLayout)
		}
		rows = append(rows, []string{r.ID, when, r.Title, r.Location, string(r.SourceType)})
	}
	return renderTable(w, []string{"ID", "When", "Title", "Location", "Source"}, rows)
}
