package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"crmdash/database"
	"crmdash/internal/logger"
)

type seedEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:          "seed",
		Short:        "Create the dashboard schema and load demo data into PostgreSQL",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env absent: les variables d'environnement suffisent
			_ = godotenv.Load()
			var env seedEnv
			if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
				return err
			}
			logger.Init(env.LogLevel)
			if dsn == "" {
				dsn = env.DatabaseURL
			}
			if dsn == "" {
				return errors.New("DATABASE_URL or --db is required")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dsn, "db", "", "PostgreSQL connection string (overrides DATABASE_URL)")

	root.AddCommand(migrateCommand(&dsn), runCommand(&dsn))
	return root
}

func migrateCommand(dsn *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables and indexes if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			db, err := database.Open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			logrus.Info("schema is up to date")
			return nil
		},
	}
}

func runCommand(dsn *string) *cobra.Command {
	opts := database.SeedOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replace the table contents with generated demo data",
		Long: `Generate a deterministic demo dataset and load it with COPY.

Existing rows are truncated. The same --seed on the same day produces the same data.

Examples:
  seed run --months 12 --customers 200
  seed run --months 24 --customers 1000 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Months < 1 || opts.Customers < 1 {
				return fmt.Errorf("--months and --customers must be positive")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			db, err := database.Open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db); err != nil {
				return err
			}

			start := time.Now()
			opts.Now = time.Now()
			counts, err := database.Seed(ctx, db, opts)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"orders":    counts["orders"],
				"customers": counts["customers"],
				"elapsed":   time.Since(start).Round(time.Millisecond),
			}).Info("seed completed")
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Months, "months", 12, "Months of order history to generate")
	cmd.Flags().IntVar(&opts.Customers, "customers", 200, "Number of customers")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "Random seed")
	return cmd
}
