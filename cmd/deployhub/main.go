package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "deployhub",
	Short: "Live deployment dashboard",
	Long: `DeployHub serves a live deployment-monitoring dashboard.

It shows deployment records with summary statistics, a status chart, a filterable
list and notifications, fed by a seed set and a periodic synthetic generator.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "dashboard", Title: "Dashboard Commands:"},
		&cobra.Group{ID: "info", Title: "Other Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("info")
	rootCmd.SetCompletionCommandGroupID("info")

	serveCmd.GroupID = "dashboard"
	listCmd.GroupID = "dashboard"
	versionCmd.GroupID = "info"

	rootCmd.AddCommand(serveCmd, listCmd, versionCmd)
}
