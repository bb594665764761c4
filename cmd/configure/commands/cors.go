package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerly/compliance-api/internal/database"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the CORS allowed origins stored in the database. The server picks up changes without a restart.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS origins",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			settings := database.NewSettingsRepository(db)
			origins, err := settings.Get(context.Background(), database.SettingCORSOrigins)
			if errors.Is(err, sql.ErrNoRows) {
				fmt.Println("No CORS origins stored. The server uses its environment defaults:")
				for _, o := range cfg.AllowedOrigins {
					fmt.Printf("  %s\n", o)
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read CORS origins: %w", err)
			}

			fmt.Println("Stored CORS origins:")
			for _, o := range strings.Split(origins, ",") {
				fmt.Printf("  %s\n", strings.TrimSpace(o))
			}
			return nil
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS origins",
		Long:  "Store the comma-separated CORS allowed origins in the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}

			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			settings := database.NewSettingsRepository(db)
			if err := settings.Set(context.Background(), database.SettingCORSOrigins, origins); err != nil {
				return fmt.Errorf("failed to store CORS origins: %w", err)
			}

			fmt.Println("CORS origins updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins")

	return cmd
}
