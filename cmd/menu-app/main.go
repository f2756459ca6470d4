package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menu-app-go/internal/app"
	"menu-app-go/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(log)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Critical("app: command failed", "err", err)
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}

func newRootCmd(log logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "menu-app",
		Short:         "Restaurant menu management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		serveCmd(log),
		migrateCmd(log),
		createUserCmd(log),
		createSuperuserCmd(log),
		digestCmd(log),
	)
	return root
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, log logger.Logger, fn func(*app.App) error) error {
	application, err := app.New(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("app: close failed", "err", err)
		}
	}()
	return fn(application)
}
