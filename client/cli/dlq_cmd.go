package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func makeDlqCmd(c *CliClient) *cobra.Command {
	dlqCmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and replay the dead letter queue",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := c.dlqQueue()
			entries, err := q.List(c.context(), limit, offset)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  type:%s attempts:%d kind:%s failed_at:%s\n  %s\n",
					e.JobId, e.JobType, e.Attempts, e.ErrorKind,
					e.FailedAt.Format("2006-01-02T15:04:05"), e.ErrorMessage)
			}
			n, err := q.Len(c.context())
			if err != nil {
				return err
			}
			fmt.Printf("%d shown, %d total\n", len(entries), n)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Max entries to show")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cumulative dead letter counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.dlqQueue().GetStats(c.context())
			if err != nil {
				return err
			}
			fmt.Printf("total_failed:%d last_failure:%s\n", stats.TotalFailed, stats.LastFailure)
			for jobType, n := range stats.ByType {
				fmt.Printf("  %s: %d\n", jobType, n)
			}
			return nil
		},
	}

	takeCmd := &cobra.Command{
		Use:   "take <job-id>",
		Short: "Remove an entry from the dead letter queue and print it; the job record is not changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.dlqQueue().Take(c.context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("removed %s (type:%s attempts:%d)\n", entry.JobId, entry.JobType, entry.Attempts)
			return nil
		},
	}

	var clearType string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the dead letter queue, optionally by job type",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.dlqQueue().Clear(c.context(), clearType)
			if err != nil {
				return err
			}
			fmt.Printf("cleared %d entries\n", n)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&clearType, "type", "", "Only clear entries of this job type")

	dlqCmd.AddCommand(listCmd, statsCmd, takeCmd, clearCmd)
	return dlqCmd
}
