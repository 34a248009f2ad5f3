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

const dateLayout = "2006-01-02"

// budgetView is the structured output of budget list
type budgetView struct {
	Summary      handbook.Summary     `json:"summary" yaml:"summary"`
	Transactions []models.Transaction `json:"transactions" yaml:"transactions"`
}

// NewBudgetCmd creates the budget command
func NewBudgetCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budget",
		Aliases: []string{"transactions", "expenses"},
		Short:   "Manage the expense ledger",
	}

	cmd.AddCommand(newBudgetListCmd(env))
	cmd.AddCommand(newBudgetAddCmd(env))
	cmd.AddCommand(newBudgetDeleteCmd(env))
	return cmd
}

func newBudgetListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses with the monthly total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				txns, err := a.Service.Budget.List(ctx)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to list transactions: %w", err)
				}
				view := budgetView{
					Summary:      handbook.Summarize(txns, a.Service.Budget.Target()),
					Transactions: txns,
				}
				return env.render(cmd.OutOrStdout(), view, func(w io.Writer) error {
					printSummary(w, view.Summary)
					fmt.Fprintln(w)
					return printTransactions(w, txns)
				})
			})
		},
	}
}

func newBudgetAddCmd(env *Env) *cobra.Command {
	var in handbook.TransactionInput
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an expense by hand",
		Example: `  handbook budget add --title "Groceries" --amount 42.10 --category Food`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				txn, err := a.Service.Budget.Add(ctx, in)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to add transaction: %w", err)
				}
				return env.render(cmd.OutOrStdout(), txn, func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s\n", successStyle.Render("Added transaction"), txn.ID)
					return printTransactions(w, []models.Transaction{txn})
				})
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Merchant or description")
	cmd.Flags().Float64Var(&in.Amount, "amount", 0, "Amount spent")
	cmd.Flags().StringVar(&in.Category, "category", "", "Food, Shopping, Travel, Home or General (default General)")
	return cmd
}

func newBudgetDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := checkStore(cmd, a.Service.Budget.Delete(ctx, args[0])); err != nil {
					return fmt.Errorf("failed to delete transaction %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", args[0])
				return nil
			})
		},
	}
}

func printSummary(w io.Writer, s handbook.Summary) {
	fmt.Fprintln(w, headingStyle.Render("Monthly budget"))
	fmt.Fprintf(w, "Spent %.2f of %.2f (%.2f remaining)\n", s.TotalSpent, s.MonthlyTarget, s.Remaining)
	fmt.Fprintln(w, progressBar(s.Progress))
}

func printTransactions(w io.Writer, txns []models.Transaction) error {
	if len(txns) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No transactions"))
		return nil
	}

	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		title := t.Title
		if t.IsAIProcessed {
			title += " (AI)"
		}
		rows = append(rows, []string{t.ID, t.Date.Format(dateLayout), title, string(t.Category), fmt.Sprintf("%.2f", t.Amount)})
	}
	return renderTable(w, []string{"ID", "Date", "Title", "Category", "Amount"}, rows)
}
