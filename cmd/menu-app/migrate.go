package main

import (
	"github.com/spf13/cobra"

	"menu-app-go/internal/app"
	"menu-app-go/pkg/logger"
)

func migrateCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), log, func(application *app.App) error {
				if err := application.Migrate(); err != nil {
					return err
				}
				log.Info("migrate: done")
				return nil
			})
		},
	}
}
