package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"menu-app-go/internal/app"
	"menu-app-go/pkg/logger"
)

func digestCmd(log logger.Logger) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send the dish update digest once",
		Long:  "Send the dish update digest for the day before --date (default: today) to every user.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), log, func(application *app.App) error {
				today := time.Now().In(application.Config().Digest.Location())
				if date != "" {
					parsed, err := time.ParseInLocation(time.DateOnly, date, application.Config().Digest.Location())
					if err != nil {
						return fmt.Errorf("invalid --date %q: %w", date, err)
					}
					today = parsed
				}

				report, err := application.RunDigest(cmd.Context(), today)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "digest for %s: sent %d, failed %d\n",
					report.Date.Format(time.DateOnly), report.Sent, report.Failed)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference day as YYYY-MM-DD")
	return cmd
}
