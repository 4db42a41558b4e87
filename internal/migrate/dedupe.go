package migrate

import (
	"context"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

// DedupeStore is the slice of the score repository the duplicate
// eliminator needs.
type DedupeStore interface {
	DuplicateScoreIDs(ctx context.Context, afterScoreID int64, limit int) ([]int64, error)
	ByScoreID(ctx context.Context, scoreID int64) ([]domain.Score, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// Dedupe removes rows that share a logical score id, keeping the one
// with the latest timestamp (ties broken by highest internal id). A
// group with a single survivor is a no-op, so re-running is safe.
type Dedupe struct {
	store  DedupeStore
	logger zerolog.Logger
}

func NewDedupe(store DedupeStore, logger zerolog.Logger) *Dedupe {
	return &Dedupe{store: store, logger: logger}
}

func (d *Dedupe) Run(ctx context.Context, opts Options) (Progress, error) {
	progress := Progress{LastID: opts.Cursor}

	for {
		scoreIDs, err := d.store.DuplicateScoreIDs(ctx, progress.LastID, opts.batchSize())
		if err != nil {
			return progress, err
		}
		if len(scoreIDs) == 0 {
			break
		}

		for _, scoreID := range scoreIDs {
			progress.LastID = scoreID

			rows, err := d.store.ByScoreID(ctx, scoreID)
			if err != nil {
				d.logger.Error().Err(err).Int64("score_id", scoreID).Msg("failed to load duplicate group")
				progress.Skipped++
				continue
			}
			progress.Scanned += len(rows)
			if len(rows) < 2 {
				continue
			}
			progress.Matched++

			survivor := rows[0]
			for _, row := range rows[1:] {
				if row.Timestamp.After(survivor.Timestamp) ||
					(row.Timestamp.Equal(survivor.Timestamp) && row.ID > survivor.ID) {
					survivor = row
				}
			}

			var doomed []int64
			for _, row := range rows {
				if row.ID != survivor.ID {
					doomed = append(doomed, row.ID)
				}
			}

			if opts.Apply {
				if err := d.store.DeleteByIDs(ctx, doomed); err != nil {
					d.logger.Error().Err(err).Int64("score_id", scoreID).Msg("failed to delete duplicates")
					progress.Skipped++
					continue
				}
			}
			progress.Changed += len(doomed)

			if progress.limitReached(opts) {
				progress.log(d.logger, "dedupe", opts.Apply)
				return progress, nil
			}
		}
	}

	progress.log(d.logger, "dedupe", opts.Apply)
	return progress, nil
}
