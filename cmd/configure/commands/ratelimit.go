package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/middleware"
)

// NewRateLimitCmd creates the ratelimit configuration command
func NewRateLimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "Show or update the request rate limit stored in the database. The server picks up changes without a restart.",
	}
	cmd.AddCommand(newRateLimitShowCmd())
	cmd.AddCommand(newRateLimitSetCmd())
	return cmd
}

func newRateLimitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			settings := database.NewSettingsRepository(db)
			ctx := context.Background()

			rate, err := settings.Get(ctx, database.SettingRateLimitRate)
			if errors.Is(err, sql.ErrNoRows) {
				rate = middleware.DefaultRatelimitRate + " (default)"
			} else if err != nil {
				return fmt.Errorf("failed to read rate limit: %w", err)
			}

			enabled := "true"
			if v, err := settings.Get(ctx, database.SettingRateLimitEnabled); err == nil {
				enabled = v
			}

			fmt.Printf("Rate limit: %s\nEnabled: %s\n", rate, enabled)
			return nil
		},
	}
}

func newRateLimitSetCmd() *cobra.Command {
	var rate string
	var disable bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the rate limit",
		Long:  "Store the rate limit in limiter notation, e.g. 100-M for 100 requests per minute per IP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" && !disable {
				return fmt.Errorf("--rate is required unless --disable is given")
			}
			if rate != "" {
				if _, err := limiter.NewRateFromFormatted(rate); err != nil {
					return fmt.Errorf("invalid rate %q: %w", rate, err)
				}
			}

			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			settings := database.NewSettingsRepository(db)
			ctx := context.Background()

			if rate != "" {
				if err := settings.Set(ctx, database.SettingRateLimitRate, rate); err != nil {
					return fmt.Errorf("failed to store rate limit: %w", err)
				}
			}

			enabled := "true"
			if disable {
				enabled = "false"
			}
			if err := settings.Set(ctx, database.SettingRateLimitEnabled, enabled); err != nil {
				return fmt.Errorf("failed to store rate limit flag: %w", err)
			}

			fmt.Println("Rate limit configuration updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&rate, "rate", "", "Rate in limiter notation (e.g. 100-M)")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable rate limiting")

	return cmd
}
