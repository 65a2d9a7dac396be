package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/transcript"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show or delete saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		entries := rt.deps.ChatLog.List(cmd.Context(), rt.cfg.User)
		w := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(w, "No saved conversations.")
			return nil
		}

		fmt.Fprintf(w, "%-36s  %-16s  %s\n", "Session", "Saved", "Messages")
		fmt.Fprintln(w, strings.Repeat("─", 64))
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			fmt.Fprintf(w, "%-36s  %-16s  %d\n",
				e.SessionID,
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				len(transcript.Visible(e.Messages)))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a saved conversation",
	Long:  "Print a saved conversation. The ID may be the full session ID or a unique suffix such as the four characters shown in the TUI.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		e, err := resolveEntry(rt.deps.ChatLog.List(cmd.Context(), rt.cfg.User), args[0])
		if err != nil {
			return err
		}
		printEntry(cmd.OutOrStdout(), e)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.cfg.User == "" {
			return errNoUser
		}

		ctx := cmd.Context()
		e, err := resolveEntry(rt.deps.ChatLog.List(ctx, rt.cfg.User), args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete session %s?", e.SessionID))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		removed, err := rt.deps.ChatLog.Delete(ctx, rt.cfg.User, e.SessionID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("session %s not found", e.SessionID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", e.SessionID)
		return nil
	},
}

// resolveEntry finds the entry whose session ID equals id or, failing
// that, the single entry whose ID ends with id.
func resolveEntry(entries []chatlog.Entry, id string) (chatlog.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return chatlog.Entry{}, fmt.Errorf("empty session ID")
	}

	var matches []chatlog.Entry
	for _, e := range entries {
		if e.SessionID == id {
			return e, nil
		}
		if strings.HasSuffix(e.SessionID, id) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return chatlog.Entry{}, fmt.Errorf("session %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return chatlog.Entry{}, fmt.Errorf("session ID %s is ambiguous (%d matches)", id, len(matches))
	}
}

func printEntry(w io.Writer, e chatlog.Entry) {
	fmt.Fprintf(w, "Session: %s\n", e.SessionID)
	fmt.Fprintf(w, "Saved:   %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, m := range transcript.Visible(e.Messages) {
		speaker := "あなた"
		if m.Role == transcript.RoleAssistant {
			speaker = "AI"
		}
		fmt.Fprintf(w, "[%s]\n%s\n\n", speaker, m.Content)
	}
}

func init() {
	historyDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
