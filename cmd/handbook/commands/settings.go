package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

// settingsView is the structured output of settings show
type settingsView struct {
	Profile     models.Profile     `json:"profile" yaml:"profile"`
	Preferences models.Preferences `json:"preferences" yaml:"preferences"`
}

// NewSettingsCmd creates the settings command
func NewSettingsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the profile and preferences",
	}

	cmd.AddCommand(newSettingsShowCmd(env))
	cmd.AddCommand(newSettingsProfileCmd(env))
	cmd.AddCommand(newSettingsPreferencesCmd(env))
	cmd.AddCommand(newSettingsClearCmd(env))
	return cmd
}

func newSettingsShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile and preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				profile, err := a.Service.Settings.Profile(ctx)
				if err != nil {
					return fmt.Errorf("failed to load profile: %w", err)
				}
				prefs, err := a.Service.Settings.Preferences(ctx)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to load preferences: %w", err)
				}
				return env.render(cmd.OutOrStdout(), settingsView{Profile: profile, Preferences: prefs}, func(w io.Writer) error {
					printProfile(w, profile)
					printPreferences(w, prefs)
					return nil
				})
			})
		},
	}
}

func newSettingsProfileCmd(env *Env) *cobra.Command {
	var name, avatar, theme string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change the display name, avatar or theme",
		Long:  "Change the display name, avatar or theme. Only the flags that are given are changed; an empty value resets the field.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update handbook.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.DisplayName = &name
			}
			if cmd.Flags().Changed("avatar") {
				update.Avatar = &avatar
			}
			if cmd.Flags().Changed("theme") {
				update.Theme = &theme
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				profile, err := a.Service.Settings.UpdateProfile(ctx, update)
				if err != nil {
					return fmt.Errorf("failed to update profile: %w", err)
				}
				return env.render(cmd.OutOrStdout(), profile, func(w io.Writer) error {
					printProfile(w, profile)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar image as a data URL")
	cmd.Flags().StringVar(&theme, "theme", "", "light, dark or system")
	return cmd
}

func newSettingsPreferencesCmd(env *Env) *cobra.Command {
	var aiEnabled, notifications, biometrics bool
	cmd := &cobra.Command{
		Use:     "preferences",
		Aliases: []string{"prefs"},
		Short:   "Switch the AI engine, notifications or biometrics on or off",
		Example: "  handbook settings preferences --ai=false",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update handbook.PreferencesUpdate
			if cmd.Flags().Changed("ai") {
				update.AIEnabled = &aiEnabled
			}
			if cmd.Flags().Changed("notifications") {
				update.Notifications = &notifications
			}
			if cmd.Flags().Changed("biometrics") {
				update.Biometrics = &biometrics
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				prefs, err := a.Service.Settings.UpdatePreferences(ctx, update)
				if err := checkStore(cmd, err); err != nil {
					return fmt.Errorf("failed to update preferences: %w", err)
				}
				return env.render(cmd.OutOrStdout(), prefs, func(w io.Writer) error {
					printPreferences(w, prefs)
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&aiEnabled, "ai", true, "Use the AI engine for scans and insights")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Show notifications")
	cmd.Flags().BoolVar(&biometrics, "biometrics", false, "Require biometric unlock")
	return cmd
}

func newSettingsClearCmd(env *Env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all Handbook data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete all reminders, expenses, to-dos and settings? [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			return env.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Service.Settings.ClearAll(ctx); err != nil {
					return fmt.Errorf("failed to clear data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("All data cleared"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func printProfile(w io.Writer, p models.Profile) {
	fmt.Fprintln(w, headingStyle.Render("Profile"))
	fmt.Fprintf(w, "  Name:   %s\n", p.DisplayName)
	fmt.Fprintf(w, "  Theme:  %s\n", p.Theme)
	if p.Avatar != "" {
		fmt.Fprintf(w, "  Avatar: %s\n", mutedStyle.Render(fmt.Sprintf("%d bytes", len(p.Avatar))))
	}
}

func printPreferences(w io.Writer, p models.Preferences) {
	fmt.Fprintln(w, headingStyle.Render("Preferences"))
	fmt.Fprintf(w, "  %s AI engine\n", checkbox(p.AIEnabled))
	fmt.Fprintf(w, "  %s Notifications\n", checkbox(p.Notifications))
	fmt.Fprintf(w, "  %s Biometrics\n", checkbox(p.Biometrics))
}
