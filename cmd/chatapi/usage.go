package main

import (
	"fmt"

	"github.com/aschepis/backscratcher/chatapi/record"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage [ledger]",
		Short: "Summarize recorded token usage and cost per model",
		Long: `Summarize recorded token usage and cost per model.

The ledger defaults to record_usage_at from the client config. Paths
ending in .db, .sqlite or .sqlite3 are SQLite databases; anything else
is read as JSON lines.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.RecordUsageAt
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no ledger given and record_usage_at is not configured")
			}

			ledger, err := record.OpenLedger(path, logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			summaries, err := ledger.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, color.HiBlackString("no usage recorded"))
				return nil
			}

			var total record.UsageSummary
			for _, s := range summaries {
				fmt.Fprintf(out, "%-24s %6d calls %10d in %10d out  %s\n",
					color.CyanString(s.Model), s.Calls, s.InputTokens, s.OutputTokens, color.YellowString("$%.6f", s.Dollars()))
				total.Calls += s.Calls
				total.InputTokens += s.InputTokens
				total.OutputTokens += s.OutputTokens
				total.Cost += s.Cost
			}
			fmt.Fprintf(out, "%-24s %6d calls %10d in %10d out  %s\n",
				"total", total.Calls, total.InputTokens, total.OutputTokens, color.YellowString("$%.6f", total.Dollars()))
			return nil
		},
	}
}
