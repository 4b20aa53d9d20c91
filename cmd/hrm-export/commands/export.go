package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"hrmexport/lib/restyutil"
	"hrmexport/lib/scrapers/hrm"
	"hrmexport/lib/serviceutil"
	"hrmexport/lib/tabular"
	"hrmexport/services/contactexport"
	"hrmexport/services/exportlog"
	"hrmexport/services/exportlog/db"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	exportProjectId  *int64
	exportOut        *string
	exportSleep      *time.Duration
	exportForceLogin *bool
	exportPhpsessid  *string
	exportBaseUrl    *string
	exportDebugHttp  *bool
)

func init() {
	exportProjectId = exportCmd.Flags().Int64("project-id", 0, "HRM project id to filter contacts by.")
	exportOut = exportCmd.Flags().String("out", "", "Output csv path, defaults to a timestamped file under the output dir. \"-\" prints the table to stdout.")
	exportSleep = exportCmd.Flags().Duration("sleep", 400*time.Millisecond, "Pause between page requests.")
	exportForceLogin = exportCmd.Flags().Bool("force-login", false, "Authenticate even when a saved session exists.")
	exportPhpsessid = exportCmd.Flags().String("phpsessid", "", "Use an explicit session cookie instead of the saved session or CAS.")
	exportBaseUrl = exportCmd.Flags().String("base-url", "", "Override the portal base url derived from the domain.")
	exportDebugHttp = exportCmd.Flags().Bool("debug-http", false, "Dump every HTTP exchange under .debug/resty.")
	cobra.CheckErr(exportCmd.MarkFlagRequired("project-id"))
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export --project-id <id> [--out <path/to/contacts.csv>]",
	Short: "Exports the contact list of a project to a csv file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *exportBaseUrl != "" {
			cfg.BaseUrl = *exportBaseUrl
		}
		baseUrl, err := cfg.resolveBaseUrl()
		if err != nil {
			serviceutil.Fatal("failed to resolve the portal url", err)
		}
		creds, err := cfg.credentials()
		if err != nil && *exportPhpsessid == "" {
			serviceutil.Fatal("missing credentials", err)
		}

		if *exportDebugHttp {
			hrm.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput(filepath.Join(".debug", "resty")),
			)
		}

		var out tabular.Writer
		outPath := *exportOut
		switch outPath {
		case "-":
			out = tabular.ConsoleWriter{}
		case "":
			err = os.MkdirAll(cfg.OutputDir, 0755)
			if err != nil {
				serviceutil.Fatal("failed to create the output dir", err)
			}
			outPath = filepath.Join(cfg.OutputDir, fmt.Sprintf(
				"%s_%d_contacts.csv",
				time.Now().Format("20060102_150405"),
				*exportProjectId,
			))
			out = tabular.CsvWriter{Path: outPath}
		default:
			out = tabular.CsvWriter{Path: outPath}
		}

		exporter := contactexport.NewExporter(contactexport.Options{
			BaseUrl:     baseUrl,
			Credentials: creds,
			SessionFile: cfg.SessionFile,
			ProjectId:   *exportProjectId,
			Delay:       *exportSleep,
			ForceLogin:  *exportForceLogin,
			SessionId:   *exportPhpsessid,
		})

		startedAt := time.Now()
		res, err := exporter.Run(cmd.Context(), out)
		if err != nil {
			fatalExport(err)
		}

		recordRun(cmd, cfg, exportlog.Run{
			StartedAt:  startedAt,
			ProjectId:  *exportProjectId,
			RowCount:   int64(res.Rows),
			MaxPage:    int64(res.MaxPage),
			OutputPath: outPath,
		})

		slog.Info(
			"export complete",
			"project_id", *exportProjectId,
			"rows", res.Rows,
			"pages", res.MaxPage,
			"out", outPath,
		)
	},
}

// fatal errors get a message naming their kind, nothing is swallowed
// at this boundary
func fatalExport(err error) {
	switch {
	case errors.Is(err, hrm.ErrLoginFailed):
		serviceutil.Fatal("authentication failed", err)
	case errors.Is(err, hrm.ErrPaginationUndetectable):
		serviceutil.Fatal("pagination discovery failed, capture the page-2 querystring in the browser's network tab", err)
	case errors.Is(err, hrm.ErrSessionExpired):
		serviceutil.Fatal("session expired again right after re-authenticating", err)
	default:
		serviceutil.Fatal("export failed", err)
	}
}

// openHistoryDb creates the output dir if needed, `history` may run
// before any export has.
func openHistoryDb(cfg Config) (*sql.DB, error) {
	err := os.MkdirAll(filepath.Dir(cfg.historyDbPath()), 0755)
	if err != nil {
		return nil, err
	}
	database, err := sql.Open("sqlite", cfg.historyDbPath())
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// run history is best effort, a failure to record never fails an
// export that already produced its file
func recordRun(cmd *cobra.Command, cfg Config, run exportlog.Run) {
	database, err := openHistoryDb(cfg)
	if err != nil {
		slog.Warn("failed to open the export history db", "err", err)
		return
	}
	defer database.Close()

	err = exportlog.NewService(database).Record(cmd.Context(), run)
	if err != nil {
		slog.Warn("failed to record the export run", "err", err)
	}
}
