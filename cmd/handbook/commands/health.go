package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/models"
)

// NewHealthCmd creates the health command
func NewHealthCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Activity insights",
	}

	var data models.HealthData
	insightsCmd := &cobra.Command{
		Use:     "insights",
		Short:   "Ask the AI provider to summarize a day of activity",
		Example: "  handbook health insights --steps 8200 --calories 2100 --heart-rate 64 --sleep 7.5 --active-minutes 45",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				insight, err := a.Service.Health.Analyze(ctx, data)
				if err != nil {
					return fmt.Errorf("failed to analyze health data: %w", err)
				}
				return env.render(cmd.OutOrStdout(), insight, func(w io.Writer) error {
					printInsight(w, insight)
					return nil
				})
			})
		},
	}
	insightsCmd.Flags().IntVar(&data.Steps, "steps", 0, "Steps walked")
	insightsCmd.Flags().IntVar(&data.Calories, "calories", 0, "Calories burned")
	insightsCmd.Flags().IntVar(&data.HeartRate, "heart-rate", 0, "Resting heart rate in bpm")
	insightsCmd.Flags().Float64Var(&data.SleepHours, "sleep", 0, "Hours slept")
	insightsCmd.Flags().IntVar(&data.ActivityMinutes, "active-minutes", 0, "Minutes of activity")
	cmd.AddCommand(insightsCmd)

	return cmd
}

func printInsight(w io.Writer, insight *models.HealthInsight) {
	fmt.Fprintln(w, headingStyle.Render("Summary"))
	fmt.Fprintln(w, insight.Summary)
	printList(w, "Trends", insight.Trends)
	printList(w, "Recommendations", insight.Recommendations)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render(title))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
