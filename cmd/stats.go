package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/verdict"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-element verdict statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		opts := store.QueryOpts{}
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			opts.From = time.Now().AddDate(0, 0, -days)
		}
		events, err := rt.db.EventRepo().QueryVerdictEvents(cmd.Context(), rt.cfg.User, opts)
		if err != nil {
			return fmt.Errorf("query verdicts: %w", err)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No verdicts recorded yet.")
			return nil
		}

		printVerdictStats(cmd.OutOrStdout(), training.Elements(), summarizeVerdicts(events))
		return nil
	},
}

// elementStats aggregates verdicts for one element.
type elementStats struct {
	Pass, Fail, Absent int
	FirstPass          time.Time
}

func (s elementStats) attempts() int { return s.Pass + s.Fail + s.Absent }

// summarizeVerdicts folds events, which arrive newest first, into
// per-element counts.
func summarizeVerdicts(events []store.VerdictEvent) map[string]elementStats {
	out := make(map[string]elementStats)
	for _, e := range events {
		s := out[e.ElementID]
		switch verdict.Verdict(e.Verdict) {
		case verdict.Pass:
			s.Pass++
		case verdict.Fail:
			s.Fail++
		default:
			s.Absent++
		}
		if e.NewlyPassed {
			s.FirstPass = e.Timestamp
		}
		out[e.ElementID] = s
	}
	return out
}

func printVerdictStats(w io.Writer, set training.Set, stats map[string]elementStats) {
	fmt.Fprintf(w, "%-4s  %8s  %6s  %6s  %6s  %6s  %s\n",
		"ID", "Attempts", "Pass", "Fail", "None", "Rate", "First pass")
	fmt.Fprintln(w, strings.Repeat("─", 64))

	var total elementStats
	for _, e := range set {
		s := stats[e.ID]
		total.Pass += s.Pass
		total.Fail += s.Fail
		total.Absent += s.Absent

		first := "-"
		if !s.FirstPass.IsZero() {
			first = s.FirstPass.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-4s  %8d  %6d  %6d  %6d  %6s  %s\n",
			e.ID, s.attempts(), s.Pass, s.Fail, s.Absent, passRate(s), first)
	}
	fmt.Fprintln(w, strings.Repeat("─", 64))
	fmt.Fprintf(w, "%-4s  %8d  %6d  %6d  %6d  %6s\n",
		"ALL", total.attempts(), total.Pass, total.Fail, total.Absent, passRate(total))
}

// passRate is passes over graded attempts; turns with no verdict line
// are left out.
func passRate(s elementStats) string {
	graded := s.Pass + s.Fail
	if graded == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", s.Pass*100/graded)
}

func init() {
	statsCmd.Flags().Int("days", 0, "Only count verdicts from the last N days (0 = all)")
}
