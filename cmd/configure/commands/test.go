package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerly/compliance-api/internal/middleware"
	"github.com/ledgerly/compliance-api/internal/queue"
)

// NewTestCmd creates the test command verifying backing services
func NewTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test connectivity to backing services",
		Long:  "Verify that the database, Redis and RabbitMQ configured in the environment are reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("database check failed: %w", err)
			}
			fmt.Println("Database: OK")

			limiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
			if err != nil {
				fmt.Printf("Redis: FAILED (%v)\n", err)
			} else {
				fmt.Println("Redis: OK")
				_ = limiter.Close()
			}

			if cfg.RabbitMQURL == "" {
				fmt.Println("RabbitMQ: skipped (RABBITMQ_URL not set)")
			} else if rabbit, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL); err != nil {
				fmt.Printf("RabbitMQ: FAILED (%v)\n", err)
			} else {
				fmt.Println("RabbitMQ: OK")
				_ = rabbit.Close()
			}

			if cfg.OpenAIKey == "" {
				fmt.Println("OpenAI: no API key configured")
			} else {
				fmt.Println("OpenAI: API key present")
			}

			return nil
		},
	}
}
