package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/training"
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the six refusal elements",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		var aspect training.Aspect
		for _, e := range training.Elements() {
			if e.Aspect != aspect {
				aspect = e.Aspect
				fmt.Fprintf(w, "\n[%s]\n", aspect)
			}
			fmt.Fprintf(w, "  %s  %s\n      %s\n", e.ID, e.Name, e.Description)
		}
		fmt.Fprintln(w)
		for _, m := range training.AllModes() {
			fmt.Fprintf(w, "Mode %-12s %s\n", m, m.DisplayName())
		}
	},
}
