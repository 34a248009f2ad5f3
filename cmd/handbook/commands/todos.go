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

// NewTodosCmd creates the todos command
func NewTodosCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Manage to-dos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List to-dos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				todos, err := a.Service.Todos.List(ctx)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to list todos: %w", err)
				}
				return env.render(cmd.OutOrStdout(), todos, func(w io.Writer) error {
					return printTodos(w, todos)
				})
			})
		},
	})

	var in handbook.TodoInput
	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a to-do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Text = args[0]
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				todo, err := a.Service.Todos.Add(ctx, in)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to add todo: %w", err)
				}
				return env.render(cmd.OutOrStdout(), todo, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s %s\n", successStyle.Render("Added todo"), todo.ID)
					return err
				})
			})
		},
	}
	addCmd.Flags().StringVar(&in.Priority, "priority", "", "High, Medium or Low (default Medium)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a to-do done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				todo, err := a.Service.Todos.Toggle(ctx, args[0])
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to toggle todo %s: %w", args[0], err)
				}
				return env.render(cmd.OutOrStdout(), todo, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s %s\n", checkbox(todo.Completed), todo.Text)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a to-do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := checkStore(cmd, a.Service.Todos.Delete(ctx, args[0])); err != nil {
					return fmt.Errorf("failed to delete todo %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

// NewRecurringCmd creates the recurring command
func NewRecurringCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"habits"},
		Short:   "Manage recurring habits",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recurring habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				tasks, err := a.Service.Todos.ListRecurring(ctx)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to list recurring tasks: %w", err)
				}
				return env.render(cmd.OutOrStdout(), tasks, func(w io.Writer) error {
					return printRecurring(w, tasks)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <text>",
		Short: "Add a recurring habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				task, err := a.Service.Todos.AddRecurring(ctx, handbook.RecurringInput{Text: args[0]})
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to add recurring task: %w", err)
				}
				return env.render(cmd.OutOrStdout(), task, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s %s\n", successStyle.Render("Added recurring task"), task.ID)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a habit on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				task, err := a.Service.Todos.ToggleRecurring(ctx, args[0])
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to toggle recurring task %s: %w", args[0], err)
				}
				return env.render(cmd.OutOrStdout(), task, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s %s\n", checkbox(task.IsActive), task.Text)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := checkStore(cmd, a.Service.Todos.DeleteRecurring(ctx, args[0])); err != nil {
					return fmt.Errorf("failed to delete recurring task %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted recurring task %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func printTodos(w io.Writer, todos []models.Todo) error {
	if len(todos) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing to do"))
		return nil
	}

	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		rows = append(rows, []string{checkbox(t.Completed), t.ID, string(t.Priority), t.Text})
	}
	return renderTable(w, []string{"Done", "ID", "Priority", "Text"}, rows)
}

func printRecurring(w io.Writer, tasks []models.RecurringTask) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No recurring tasks"))
		return nil
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{checkbox(t.IsActive), t.ID, t.Text})
	}
	return renderTable(w, []string{"Active", "ID", "Text"}, rows)
}
