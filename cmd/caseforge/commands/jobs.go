package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caseforge/caseforge/internal/cli/output"
	"github.com/caseforge/caseforge/internal/cli/timeutil"
	"github.com/caseforge/caseforge/pkg/config"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

var (
	jobsStatus string
	jobsLimit  int
	jobsFormat string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List ingest jobs",
	Long: `List ingest jobs with their status, source file and counters.

Examples:
  # List recent jobs
  caseforge jobs

  # Only failed jobs
  caseforge jobs --status failed

  # Machine-readable output
  caseforge jobs --output json`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "Filter by status (queued, running, completed, failed)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "Maximum number of jobs to list")
	jobsCmd.Flags().StringVarP(&jobsFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	format, err := output.ParseFormat(jobsFormat)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()

	jobs, err := st.ListIngestJobs(ctx, models.JobStatus(jobsStatus), jobsLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	printer := output.NewPrinter(os.Stdout, format)
	if format != output.FormatTable {
		return printer.Print(jobs)
	}

	if len(jobs) == 0 {
		printer.Println("No ingest jobs found.")
		return nil
	}

	table := output.NewTableData("ID", "STATUS", "SOURCE FILE", "EVENTS", "UNKNOWN", "CREATED", "AGE")
	for _, job := range jobs {
		table.AddRow(
			fmt.Sprintf("%d", job.ID),
			string(job.Status),
			job.SourceFileID,
			statInt(job.Stats, "events_inserted"),
			statInt(job.Stats, "unknown_lines"),
			timeutil.FormatTime(job.CreatedAt),
			timeutil.FormatAge(job.UpdatedAt),
		)
	}
	return printer.Print(table)
}

// statInt renders a numeric stats entry, tolerating the float64 shape JSON
// round-trips produce.
func statInt(stats models.JSONMap, key string) string {
	if stats == nil {
		return "-"
	}
	switch v := stats[key].(type) {
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return "-"
	}
}
