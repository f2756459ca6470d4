package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menu-app-go/internal/app"
	userdomain "menu-app-go/internal/domain/user"
	"menu-app-go/pkg/logger"
)

func createUserCmd(log logger.Logger) *cobra.Command {
	var input userdomain.CreateUserInput

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createUser(cmd, log, input)
		},
	}
	cmd.Flags().StringVar(&input.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&input.Email, "email", "", "address that receives the daily digest")
	cmd.Flags().StringVar(&input.Password, "password", "", "password (required)")
	cmd.Flags().BoolVar(&input.IsStaff, "staff", false, "grant staff rights")
	cmd.Flags().BoolVar(&input.IsSuperuser, "superuser", false, "grant superuser rights")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// createSuperuserCmd reads its defaults from SUPERUSER_NAME, SUPERUSER_EMAIL
// and SUPERUSER_PASSWORD so containers can bootstrap an admin.
func createSuperuserCmd(log logger.Logger) *cobra.Command {
	input := userdomain.CreateUserInput{IsStaff: true, IsSuperuser: true}

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff superuser account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Username == "" || input.Password == "" {
				return fmt.Errorf("username and password are required (flags or SUPERUSER_NAME/SUPERUSER_PASSWORD)")
			}
			return createUser(cmd, log, input)
		},
	}
	cmd.Flags().StringVar(&input.Username, "username", os.Getenv("SUPERUSER_NAME"), "login name")
	cmd.Flags().StringVar(&input.Email, "email", os.Getenv("SUPERUSER_EMAIL"), "email address")
	cmd.Flags().StringVar(&input.Password, "password", os.Getenv("SUPERUSER_PASSWORD"), "password")
	return cmd
}

func createUser(cmd *cobra.Command, log logger.Logger, input userdomain.CreateUserInput) error {
	return withApp(cmd.Context(), log, func(application *app.App) error {
		user, err := application.Users.CreateUser(cmd.Context(), input)
		if err != nil {
			return err
		}
		log.Info("user created",
			"user_id", user.ID,
			"username", user.Username,
			"is_staff", user.IsStaff,
			"is_superuser", user.IsSuperuser,
		)
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %q (id %d)\n", user.Username, user.ID)
		return err
	})
}
