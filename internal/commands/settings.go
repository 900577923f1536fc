package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/models"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change generation settings",
		Long: `Show or change the generation settings sent with every message:
system prompt, temperature (0-2) and max tokens (100-8000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				printSettings(cmd.OutOrStdout(), e.store.Settings())
				return nil
			})
		},
	}

	cmd.AddCommand(newSettingsSetCmd(a), newSettingsResetCmd(a), newPresetCmd(a))
	return cmd
}

func printSettings(out io.Writer, s models.Settings) {
	fmt.Fprintf(out, "Temperature:   %.1f\n", s.Temperature)
	fmt.Fprintf(out, "Max tokens:    %d\n", s.MaxTokens)
	fmt.Fprintf(out, "System prompt: %s\n", s.SystemPrompt)
}

func newSettingsSetCmd(a *app) *cobra.Command {
	var (
		temperature float64
		maxTokens   int
		system      string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change generation settings",
		Example: `  chatui settings set --temperature 0.3
  chatui settings set --max-tokens 2000 --system "Answer briefly."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.SettingsPatch
			if cmd.Flags().Changed("temperature") {
				patch.Temperature = &temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				patch.MaxTokens = &maxTokens
			}
			if cmd.Flags().Changed("system") {
				patch.SystemPrompt = &system
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to set (use --temperature, --max-tokens or --system)")
			}
			if err := patch.Validate(); err != nil {
				return err
			}

			return a.withStore(cmd, func(e *env) error {
				e.store.UpdateSettings(patch)
				printSettings(cmd.OutOrStdout(), e.store.Settings())
				return nil
			})
		},
	}
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", models.DefaultTemperature, "Sampling temperature (0-2)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", models.DefaultMaxTokens, "Maximum reply tokens (100-8000)")
	cmd.Flags().StringVarP(&system, "system", "s", "", "System prompt")
	return cmd
}

func newSettingsResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				d := models.DefaultSettings()
				e.store.UpdateSettings(models.SettingsPatch{
					SystemPrompt: &d.SystemPrompt,
					Temperature:  &d.Temperature,
					MaxTokens:    &d.MaxTokens,
				})
				printSettings(cmd.OutOrStdout(), e.store.Settings())
				return nil
			})
		},
	}
}

func newPresetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preset",
		Aliases: []string{"presets"},
		Short:   "Manage settings presets",
		Long:    `Presets are named bundles of system prompt, temperature and max tokens.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := a.deps.Presets()
			if err != nil {
				return fmt.Errorf("failed to load presets: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tTEMP\tTOKENS")
			_, _ = fmt.Fprintln(w, "----\t-----------\t----\t------")
			for _, p := range presets {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Description,
					optional(p.Temperature > 0, fmt.Sprintf("%.1f", p.Temperature)),
					optional(p.MaxTokens > 0, fmt.Sprintf("%d", p.MaxTokens)))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show preset details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.findPreset(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", p.Name)
			fmt.Fprintf(out, "Description: %s\n", p.Description)
			if p.Temperature > 0 {
				fmt.Fprintf(out, "Temperature: %.1f\n", p.Temperature)
			}
			if p.MaxTokens > 0 {
				fmt.Fprintf(out, "Max tokens: %d\n", p.MaxTokens)
			}
			fmt.Fprintf(out, "\nSystem Prompt:\n%s\n", p.SystemPrompt)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a preset to the settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.findPreset(args[0])
			if err != nil {
				return err
			}
			patch := p.Patch()
			if err := patch.Validate(); err != nil {
				return err
			}
			return a.withStore(cmd, func(e *env) error {
				e.store.UpdateSettings(patch)
				fmt.Fprintf(cmd.OutOrStdout(), "Applied preset '%s'.\n", p.Name)
				printSettings(cmd.OutOrStdout(), e.store.Settings())
				return nil
			})
		},
	})

	cmd.AddCommand(newPresetAddCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a user preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeletePreset(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset '%s' deleted.\n", args[0])
			return nil
		},
	})

	return cmd
}

func newPresetAddCmd() *cobra.Command {
	var p config.Preset
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = strings.TrimSpace(args[0])
			if err := config.AddPreset(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset '%s' saved.\n", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&p.Description, "description", "d", "", "Short description")
	cmd.Flags().StringVarP(&p.SystemPrompt, "system", "s", "", "System prompt")
	cmd.Flags().Float64VarP(&p.Temperature, "temperature", "t", 0, "Temperature (0 keeps the current value)")
	cmd.Flags().IntVar(&p.MaxTokens, "max-tokens", 0, "Max tokens (0 keeps the current value)")
	return cmd
}

// findPreset looks a preset up by name, ignoring case
func (a *app) findPreset(name string) (config.Preset, error) {
	presets, err := a.deps.Presets()
	if err != nil {
		return config.Preset{}, fmt.Errorf("failed to load presets: %w", err)
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return config.Preset{}, fmt.Errorf("preset '%s' not found", name)
}

func optional(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}
