// Package main provides the training and validation CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Scardubu/sabiscore/internal/config"
	"github.com/Scardubu/sabiscore/internal/database"
	"github.com/Scardubu/sabiscore/internal/logger"
	"github.com/Scardubu/sabiscore/internal/models"
	"github.com/Scardubu/sabiscore/internal/repository"
	"github.com/Scardubu/sabiscore/internal/service"
)

var (
	configFile string
	leagueFlag string
	limitFlag  int

	appLog    *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	matchRepo repository.MatchRepository
	registry  *service.Registry
	trainer   *service.Trainer
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().IntVar(&limitFlag, "limit", 2000, "Maximum matches per league to load")
	validateCmd.Flags().StringVar(&leagueFlag, "league", "", "League to validate (required)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(validateCmd)
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit and validate league prediction models",
	Long:  `Trains per-league ensemble models from the historical match store and reports holdout validation metrics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train every configured league and print validation reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		matches, err := loadMatches(ctx, registry.Leagues())
		if err != nil {
			return err
		}
		reports, err := trainer.TrainAll(ctx, matches)
		printReports(reports)
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score one league's trained model against its stored matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		if leagueFlag == "" {
			return fmt.Errorf("--league is required")
		}
		entry, err := registry.Resolve(leagueFlag)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		matches, err := loadMatches(ctx, []string{entry.Name})
		if err != nil {
			return err
		}
		// Validation needs a fitted model first
		if _, err := trainer.TrainAll(ctx, matches); err != nil {
			return err
		}
		report, err := trainer.Validate(ctx, leagueFlag, matches)
		if err != nil {
			return err
		}
		printReports([]service.ValidationReport{report})
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("training requires database.enabled: true")
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	matchRepo = repository.NewPostgresMatchRepository(db)

	registry, err = service.BuildRegistry(cfg.Leagues, appLog)
	if err != nil {
		return fmt.Errorf("failed to build league registry: %w", err)
	}
	trainer = service.NewTrainer(registry, logger.NewAuditLogger(appLog), appLog)
	return nil
}

func loadMatches(ctx context.Context, leagues []string) ([]*models.HistoricalMatch, error) {
	var all []*models.HistoricalMatch
	for _, league := range leagues {
		matches, err := matchRepo.GetByLeague(ctx, league, limitFlag)
		if err != nil {
			return nil, fmt.Errorf("load matches for %s: %w", league, err)
		}
		all = append(all, matches...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no historical matches found")
	}
	return all, nil
}

func printReports(reports []service.ValidationReport) {
	for _, r := range reports {
		fmt.Printf("%-12s version=%s samples=%d holdout=%d accuracy=%.3f brier=%.4f\n",
			r.League, r.ModelVersion, r.Samples, r.Holdout, r.Accuracy, r.Brier)
	}
}
