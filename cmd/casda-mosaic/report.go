// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/ledger"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show recorded runs from the ledger",
	Long: `Report lists past pipeline runs recorded in the sqlite ledger. With a
run identifier it prints that run's per-candidate dispositions instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("ledger", "casda-mosaic.db", "sqlite run-ledger path")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("ledger")
	led, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer led.Close()

	if len(args) == 1 {
		return reportCandidates(led, args[0])
	}
	return reportRuns(led)
}

func reportRuns(led *ledger.Ledger) error {
	runs, err := led.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-12s  %-8s\n", "RUN", "STARTED", "COLLECTION", "SUCCESS")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-12s  %-8t\n",
			r.ID, r.Started.Local().Format(time.DateTime), r.Collection, r.Success)
	}
	fmt.Printf("\n%d run(s)\n", len(runs))
	return nil
}

func reportCandidates(led *ledger.Ledger, runID string) error {
	records, err := led.Candidates(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no candidates recorded for run %s", runID)
	}

	included := 0
	fmt.Printf("%-20s  %-10s  %s\n", "OBS_ID", "STATE", "DETAIL")
	for _, rec := range records {
		detail := rec.Reason
		if rec.Included {
			detail = rec.Image
			included++
		}
		fmt.Printf("%-20s  %-10s  %s\n", rec.ObsID, rec.State, detail)
	}
	fmt.Printf("\n%d mosaicked, %d excluded\n", included, len(records)-included)
	return nil
}
