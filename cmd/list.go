package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"sqldeck/internal/catalog"
)

var listDatasets []string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the definitions in the SQL catalog",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringSliceVarP(&listDatasets, "dataset", "d", nil, "List only these datasets")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	datasets := listDatasets
	if len(datasets) == 0 {
		datasets = cfg.Catalog.Datasets
	}

	cat, err := catalog.Load(cfg.Catalog.Root, datasets)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Kind", "Tests", "Dependencies", "Schedule"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, r := range catalog.DeployOrder(cat.Routines) {
		table.Append([]string{
			r.Name,
			"routine",
			fmt.Sprintf("%d", len(r.Tests)),
			strings.Join(r.Dependencies, ", "),
			scheduleColumn(r.Metadata),
		})
	}
	for _, v := range cat.Views {
		table.Append([]string{v.Name, "view", "", "", scheduleColumn(v.Metadata)})
	}

	table.Render()
	return nil
}

func scheduleColumn(m *catalog.Metadata) string {
	if m == nil || m.Scheduling == nil {
		return ""
	}
	if !m.Scheduling.Enabled {
		return m.Scheduling.Cron + " (suspended)"
	}
	return m.Scheduling.Cron
}
