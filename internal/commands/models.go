package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/models"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tDEFAULT")
			_, _ = fmt.Fprintln(w, "--\t----\t--------\t-------")
			def := models.DefaultModel().ID
			for _, m := range models.AllModels() {
				isDefault := ""
				if m.ID == def {
					isDefault = "✓"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Provider, isDefault)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show model details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := models.ModelByID(args[0])
			if !ok {
				return fmt.Errorf("unknown model %q (known: %s)", args[0], strings.Join(models.ModelIDs(), ", "))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", m.Name, m.Provider)
			fmt.Fprintf(out, "ID: %s\n\n", m.ID)
			fmt.Fprintf(out, "%s\n\n", m.Description)
			fmt.Fprintf(out, "Strengths: %s\n", strings.Join(m.Strengths, ", "))
			fmt.Fprintf(out, "Use cases: %s\n", strings.Join(m.UseCases, ", "))
			return nil
		},
	})

	return cmd
}
