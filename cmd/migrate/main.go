package main

import (
	"context"
	"os"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/database"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/logger"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/migrate"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/repository"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type jobRunner interface {
	Run(ctx context.Context, opts migrate.Options) (migrate.Progress, error)
}

var (
	flagDB          string
	flagApply       bool
	flagBatchSize   int
	flagLimit       int
	flagCursor      int64
	flagDropUnknown bool
	flagTable       string
)

func main() {
	log := logger.New()

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Batch consistency and migration jobs for the score database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDB, "db", "scoresaber.db", "path to the sqlite database")
	root.PersistentFlags().BoolVar(&flagApply, "apply", false, "disable dry-run and write changes")
	root.PersistentFlags().IntVar(&flagBatchSize, "batch-size", constants.DefaultBatchSize, "page size for batch processing")
	root.PersistentFlags().IntVar(&flagLimit, "limit", 0, "stop after this many changes (0 = no limit)")
	root.PersistentFlags().Int64Var(&flagCursor, "cursor", 0, "resume scanning after this id")

	root.AddCommand(
		newJobCommand("dedupe", "Delete duplicate score rows, keeping the latest per score id", log,
			func(scores *repository.ScoreRepository, players *repository.PlayerRepository) jobRunner {
				return migrate.NewDedupe(scores, log)
			}),
		newModifiersCommand(log),
		newJobCommand("nofail-backfill", "Backfill modified_score for No Fail scores", log,
			func(scores *repository.ScoreRepository, players *repository.PlayerRepository) jobRunner {
				return migrate.NewNoFailBackfill(scores, log)
			}),
		newOrphansCommand(log),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}

func newModifiersCommand(log zerolog.Logger) *cobra.Command {
	cmd := newJobCommand("modifiers", "Normalize legacy modifier labels to short codes", log,
		func(scores *repository.ScoreRepository, players *repository.PlayerRepository) jobRunner {
			return migrate.NewModifiers(scores, log)
		})
	cmd.Flags().BoolVar(&flagDropUnknown, "drop-unknown", false, "drop unrecognized modifier entries instead of skipping the record")
	return cmd
}

func newOrphansCommand(log zerolog.Logger) *cobra.Command {
	cmd := newJobCommand("orphans", "Delete auxiliary score records whose player or score is gone", log,
		func(scores *repository.ScoreRepository, players *repository.PlayerRepository) jobRunner {
			return migrate.NewOrphans(scores, players, log)
		})
	cmd.Flags().StringVar(&flagTable, "table", "", "sweep only this auxiliary table (score_data or score_stats); pair with --cursor to resume")
	return cmd
}

func newJobCommand(name, short string, log zerolog.Logger, build func(*repository.ScoreRepository, *repository.PlayerRepository) jobRunner) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(flagDB, log)
			if err != nil {
				return err
			}
			defer db.Close()

			scores := repository.NewScoreRepository(db, log)
			players := repository.NewPlayerRepository(db, log)
			job := build(scores, players)

			opts := migrate.Options{
				Apply:       flagApply,
				BatchSize:   flagBatchSize,
				Limit:       flagLimit,
				Cursor:      flagCursor,
				DropUnknown: flagDropUnknown,
				Table:       flagTable,
			}
			if !opts.Apply {
				log.Info().Msg("dry-run mode, pass --apply to write changes")
			}

			progress, err := job.Run(cmd.Context(), opts)
			if err != nil {
				log.Error().
					Int64("cursor", progress.LastID).
					Msg("job aborted, resume with --cursor")
				return err
			}
			return nil
		},
	}
}
