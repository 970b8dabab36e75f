package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"deployhub/internal/config"
	"deployhub/internal/deployment"
	"deployhub/internal/filter"
	"deployhub/internal/history"
	"deployhub/internal/source"
	"deployhub/internal/stats"

	"github.com/spf13/cobra"
)

var (
	listStatus      string
	listEnvironment string
	listSort        string
	listQuery       string
	listJSON        bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current deployments",
	Long: `Load the deployment records once, apply the filter and sort options and print
them as a table (or JSON) followed by the summary statistics.`,
	Example: `  deployhub list --status failed
  deployhub list --environment production --sort duration
  deployhub list --db ./deployments.db --json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&configFile, "config", "c", getEnvOrDefault("DEPLOYHUB_CONFIG_FILE", ""), "Path to deployhub.yaml configuration file")
	listCmd.Flags().StringVar(&dbPath, "db", getEnvOrDefault("DEPLOYHUB_DB_PATH", ""), "Path to SQLite history database (optional)")
	listCmd.Flags().StringVar(&listStatus, "status", filter.All, "Status filter (all, success, in_progress, failed)")
	listCmd.Flags().StringVar(&listEnvironment, "environment", filter.All, "Environment filter (all, production, staging, development)")
	listCmd.Flags().StringVar(&listSort, "sort", string(filter.SortNewest), "Sort order (newest, oldest, duration)")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search project, user or environment")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
}

func runList(cmd *cobra.Command, args []string) error {
	criteria, err := filter.ParseCriteria(listStatus, listEnvironment, listSort, listQuery)
	if err != nil {
		return err
	}

	cfg, _, err := config.Resolve(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.History.DBPath = dbPath
	}

	var src source.Source = &source.Static{Now: time.Now}
	if cfg.History.DBPath != "" {
		hist, err := history.NewHistory(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer hist.Close()
		hist.Limit = cfg.Feed.Capacity
		src = hist
	}

	records, err := src.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load deployments: %w", err)
	}

	selected := filter.Apply(records, criteria)
	st := stats.Compute(records)
	out := cmd.OutOrStdout()

	if listJSON {
		return writeListJSON(out, criteria, selected, st)
	}
	return writeListTable(out, selected, st, time.Now())
}

func writeListJSON(w io.Writer, criteria filter.Criteria, records []deployment.Record, st stats.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []deployment.Record{}
	}
	return enc.Encode(map[string]interface{}{
		"criteria":    criteria,
		"deployments": records,
		"stats":       st,
	})
}

func writeListTable(w io.Writer, records []deployment.Record, st stats.Stats, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tUSER\tSTATUS\tENVIRONMENT\tDURATION\tDEPLOYED")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t@%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ProjectName, r.Username, r.Status.Label(), r.Environment.Label(), r.Duration,
			deployment.RelativeTime(r.DeployedAt, now))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No deployments match the current filters")
	}

	_, err := fmt.Fprintln(w, summaryLine(st))
	return err
}

func summaryLine(st stats.Stats) string {
	parts := []string{
		fmt.Sprintf("Total: %d", st.Total),
		fmt.Sprintf("Successful: %d", st.SuccessCount),
		fmt.Sprintf("In progress: %d", st.InProgressCount),
		fmt.Sprintf("Failed: %d", st.FailedCount),
	}
	if st.UnknownCount > 0 {
		parts = append(parts, fmt.Sprintf("Unknown: %d", st.UnknownCount))
	}
	parts = append(parts, fmt.Sprintf("Success rate: %d%% (%s)", st.SuccessRate, st.Health()))
	return strings.Join(parts, "  ")
}
