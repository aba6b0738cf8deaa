// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docmark/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversion runs",
	Long: `History lists conversion runs recorded in the local SQLite database,
newest first. With --failures it lists recently failed files instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of rows to list")
	historyCmd.Flags().Bool("failures", false, "list recent per-file failures instead of runs")
	historyCmd.Flags().String("db", "", "history database path (default: per-user cache dir)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("history_db")
	}
	if dbPath == "" {
		var err error
		dbPath, err = history.DefaultPath()
		if err != nil {
			return err
		}
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")

	if failures, _ := cmd.Flags().GetBool("failures"); failures {
		return printFailures(store, limit)
	}
	return printRuns(store, limit)
}

func printRuns(store *history.Store, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFINISHED\tROOT\tCONVERTED\tSKIPPED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.FinishedAt.Local().Format(time.DateTime), r.Root,
			r.Converted, r.Skipped, r.Failed)
	}
	return w.Flush()
}

func printFailures(store *history.Store, limit int) error {
	failures, err := store.RecentFailures(limit)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		fmt.Println("No recorded failures.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tWHEN\tFILE\tERROR")
	for _, f := range failures {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			f.RunID, f.At.Local().Format(time.DateTime), f.Path, f.Error)
	}
	return w.Flush()
}
