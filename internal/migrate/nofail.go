package migrate

import (
	"context"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type BackfillStore interface {
	PageMissingModifiedScore(ctx context.Context, afterID int64, limit int) ([]domain.Score, error)
	SetModifiedScore(ctx context.Context, id, modifiedScore int64) error
}

// NoFailBackfill fills in the derived modified_score field for scores
// set with the No Fail modifier: modifiedScore = score / 0.5. Scores
// without No Fail are left alone and the field stays unset.
type NoFailBackfill struct {
	store  BackfillStore
	logger zerolog.Logger
}

func NewNoFailBackfill(store BackfillStore, logger zerolog.Logger) *NoFailBackfill {
	return &NoFailBackfill{store: store, logger: logger}
}

func (b *NoFailBackfill) Run(ctx context.Context, opts Options) (Progress, error) {
	progress := Progress{LastID: opts.Cursor}

	for {
		scores, err := b.store.PageMissingModifiedScore(ctx, progress.LastID, opts.batchSize())
		if err != nil {
			return progress, err
		}
		if len(scores) == 0 {
			break
		}

		for _, score := range scores {
			progress.LastID = score.ID
			progress.Scanned++

			if !domain.HasModifier(score.Modifiers, domain.ModifierNoFail) {
				continue
			}
			progress.Matched++

			modifiedScore := int64(float64(score.Score) / domain.NoFailScorePenalty)
			if opts.Apply {
				if err := b.store.SetModifiedScore(ctx, score.ID, modifiedScore); err != nil {
					b.logger.Error().Err(err).Int64("id", score.ID).Msg("failed to set modified score")
					progress.Skipped++
					continue
				}
			}
			progress.Changed++

			if progress.limitReached(opts) {
				progress.log(b.logger, "nofail-backfill", opts.Apply)
				return progress, nil
			}
		}
	}

	progress.log(b.logger, "nofail-backfill", opts.Apply)
	return progress, nil
}
