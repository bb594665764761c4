package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ledgerly/compliance-api/internal/database"
)

// NewListCmd creates the list command showing all stored settings
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			settings := database.NewSettingsRepository(db)
			values, err := settings.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list settings: %w", err)
			}
			if len(values) == 0 {
				fmt.Println("No settings stored.")
				return nil
			}

			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Printf("%s = %s\n", k, values[k])
			}
			return nil
		},
	}
}
