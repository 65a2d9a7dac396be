package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/gate"
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/training"
)

var errNoUser = errors.New("no user configured: pass --user or set KOTOWARI_USER")

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show or reset per-element progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return progressShowCmd.RunE(cmd, args)
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which elements the user has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		rec := rt.deps.Progress.Load(cmd.Context(), rt.cfg.User)
		printProgress(cmd.OutOrStdout(), rt.cfg.User, training.Elements(), rec)
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every passed element for the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Reset all progress for %s?", rt.cfg.User))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		rec, err := rt.deps.Progress.Reset(cmd.Context(), rt.cfg.User)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
		printProgress(cmd.OutOrStdout(), rt.cfg.User, training.Elements(), rec)
		return nil
	},
}

func printProgress(w io.Writer, userID string, set training.Set, rec progress.Record) {
	fmt.Fprintf(w, "User: %s   %d/%d passed\n", userID, rec.PassedCount(set), len(set))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, e := range set {
		mark := " "
		if rec.Passed(e.ID) {
			mark = "✓"
		}
		fmt.Fprintf(w, " %s  %s  %s\n", mark, e.ID, e.Name)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))

	if gate.Evaluate(set, rec).CombinedAvailable {
		fmt.Fprintln(w, "Combined practice: unlocked")
		return
	}
	var ids []string
	for _, e := range gate.Remaining(set, rec) {
		ids = append(ids, e.ID)
	}
	fmt.Fprintf(w, "Combined practice: locked (remaining %s)\n", strings.Join(ids, ", "))
}

// confirm asks a y/N question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func init() {
	progressResetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
}
