package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/journal"
	"github.com/spf13/cobra"
)

var errNoJournal = errors.New("the call journal is not enabled, set --journal-dsn")

var (
	historyCmdLimit      int
	historyCmdTool       string
	historyCmdFailedOnly bool

	historyPurgeCmdOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent tool calls",
	Long:  "Lists the tool calls recorded in the call journal, most recent first.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
	Annotations: map[string]string{
		"group": string(subCommandGroupAdvanced),
		"order": "1",
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old tool calls from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPurge,
	Annotations: map[string]string{
		"group": string(subCommandGroupBasic),
		"order": "1",
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyCmdLimit, "limit", journal.DefaultListLimit, "maximum number of calls to show")
	historyCmd.Flags().StringVar(&historyCmdTool, "tool", "", "only show the calls of this tool")
	historyCmd.Flags().BoolVar(&historyCmdFailedOnly, "failed", false, "only show the calls that returned an error")

	historyPurgeCmd.Flags().DurationVar(
		&historyPurgeCmdOlderThan,
		"older-than",
		30*24*time.Hour,
		"delete the calls recorded longer ago than this",
	)

	historyCmd.AddCommand(historyPurgeCmd)
	rootCmd.AddCommand(historyCmd)
}

// withJournal opens the configured journal and runs fn with it.
func withJournal(cmd *cobra.Command, fn func(ctx context.Context, j *journal.JournalService) error) error {
	c, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	j, done, err := openJournal(c)
	defer done()
	if err != nil {
		return err
	}
	if j == nil {
		return errNoJournal
	}
	return fn(cmd.Context(), j)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyCmdLimit <= 0 {
		return fmt.Errorf("invalid limit: %d, must be a positive integer", historyCmdLimit)
	}
	return withJournal(cmd, func(ctx context.Context, j *journal.JournalService) error {
		calls, err := j.List(ctx, journal.ListOptions{
			Tool:       historyCmdTool,
			Limit:      historyCmdLimit,
			FailedOnly: historyCmdFailedOnly,
		})
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			cmd.Println("No tool calls recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTOOL\tOUTCOME\tDURATION\tERROR")
		for _, c := range calls {
			fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\n",
				c.CreatedAt.Format(time.RFC3339), c.Tool, c.Outcome, c.DurationMs, firstLine(c.Error))
		}
		return w.Flush()
	})
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	if historyPurgeCmdOlderThan <= 0 {
		return fmt.Errorf("invalid duration: %s, must be positive", historyPurgeCmdOlderThan)
	}
	return withJournal(cmd, func(ctx context.Context, j *journal.JournalService) error {
		n, err := j.Purge(ctx, time.Now().Add(-historyPurgeCmdOlderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tool calls\n", n)
		return nil
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
