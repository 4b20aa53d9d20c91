package commands

import (
	"fmt"
	"hrmexport/lib/scrapers/hrm"
	"hrmexport/lib/serviceutil"
	"log/slog"

	"github.com/spf13/cobra"
)

var loginBaseUrl *string

func init() {
	loginBaseUrl = loginCmd.Flags().String("base-url", "", "Override the portal base url derived from the domain.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Runs the CAS login flow and saves the session for later exports.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *loginBaseUrl != "" {
			cfg.BaseUrl = *loginBaseUrl
		}
		baseUrl, err := cfg.resolveBaseUrl()
		if err != nil {
			serviceutil.Fatal("failed to resolve the portal url", err)
		}
		creds, err := cfg.credentials()
		if err != nil {
			serviceutil.Fatal("missing credentials", err)
		}

		session, err := hrm.Login(cmd.Context(), baseUrl, creds)
		if err != nil {
			serviceutil.Fatal("login failed", err)
		}
		err = hrm.SaveSession(cfg.SessionFile, session)
		if err != nil {
			serviceutil.Fatal("failed to save the session", err)
		}

		slog.Info("session saved", "file", cfg.SessionFile)
		fmt.Println(session.SessionId)
	},
}
