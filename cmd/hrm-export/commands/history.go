package commands

import (
	"hrmexport/lib/serviceutil"
	"hrmexport/lib/tabular"
	"hrmexport/services/exportlog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int64

func init() {
	historyLimit = historyCmd.Flags().Int64("limit", 20, "Maximum number of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Shows past export runs, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		database, err := openHistoryDb(cfg)
		if err != nil {
			serviceutil.Fatal("failed to open the export history db", err)
		}
		defer database.Close()

		runs, err := exportlog.NewService(database).Recent(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list export runs", err)
		}

		t := tabular.NewTable()
		t.AppendHeader(table.Row{"Started", "Project", "Rows", "Pages", "Output"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.Format(time.DateTime),
				run.ProjectId,
				run.RowCount,
				run.MaxPage,
				run.OutputPath,
			})
		}
		t.Render()
	},
}
