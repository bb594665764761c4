package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerly/compliance-api/internal/auth"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
)

// NewSeedAdminCmd creates the seed-admin command
func NewSeedAdminCmd() *cobra.Command {
	var username, email, password, fullName string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the initial admin account",
		Long:  "Create an admin user if one with the given username does not already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}

			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			ctx := context.Background()
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate schema: %w", err)
			}

			users := database.NewUserRepository(db)
			if _, err := users.GetByUsername(ctx, username); err == nil {
				fmt.Printf("User %q already exists, nothing to do.\n", username)
				return nil
			} else if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to check existing user: %w", err)
			}

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			if fullName == "" {
				fullName = "Administrator"
			}

			admin := &models.User{
				ID:             uuid.New(),
				Email:          email,
				Username:       username,
				FullName:       fullName,
				HashedPassword: hashed,
				Role:           models.RoleAdmin,
				Status:         models.UserStatusActive,
			}
			if err := users.Create(ctx, admin); err != nil {
				return fmt.Errorf("failed to create admin user: %w", err)
			}

			fmt.Printf("Admin user %q created (id %s).\n", username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	cmd.Flags().StringVar(&email, "email", "", "Admin e-mail address")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Admin display name")

	return cmd
}
