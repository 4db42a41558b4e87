package migrate

import (
	"context"
	"slices"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type ModifierStore interface {
	Page(ctx context.Context, afterID int64, limit int) ([]domain.Score, error)
	UpdateModifiers(ctx context.Context, id int64, modifiers []string) error
}

// Modifiers normalizes legacy modifier display labels ("No Fail") to
// their canonical short codes ("NF"), each entry mapped independently.
// A record with any unrecognizable entry is skipped whole unless
// DropUnknown is set, in which case unknown entries are dropped and the
// rest normalized. Records whose normalized list equals the stored list
// are not written.
type Modifiers struct {
	store  ModifierStore
	logger zerolog.Logger
}

func NewModifiers(store ModifierStore, logger zerolog.Logger) *Modifiers {
	return &Modifiers{store: store, logger: logger}
}

func (m *Modifiers) Run(ctx context.Context, opts Options) (Progress, error) {
	progress := Progress{LastID: opts.Cursor}

	for {
		scores, err := m.store.Page(ctx, progress.LastID, opts.batchSize())
		if err != nil {
			return progress, err
		}
		if len(scores) == 0 {
			break
		}

		for _, score := range scores {
			progress.LastID = score.ID
			progress.Scanned++

			normalized, hadUnknown := normalizeModifiers(score.Modifiers, opts.DropUnknown)
			if hadUnknown && !opts.DropUnknown {
				m.logger.Warn().
					Int64("id", score.ID).
					Strs("modifiers", score.Modifiers).
					Msg("score has unrecognized modifier, skipping record")
				progress.Matched++
				progress.Skipped++
				continue
			}
			if slices.Equal(normalized, score.Modifiers) {
				continue
			}
			progress.Matched++

			if opts.Apply {
				if err := m.store.UpdateModifiers(ctx, score.ID, normalized); err != nil {
					m.logger.Error().Err(err).Int64("id", score.ID).Msg("failed to update modifiers")
					progress.Skipped++
					continue
				}
			}
			progress.Changed++

			if progress.limitReached(opts) {
				progress.log(m.logger, "modifiers", opts.Apply)
				return progress, nil
			}
		}
	}

	progress.log(m.logger, "modifiers", opts.Apply)
	return progress, nil
}

// normalizeModifiers maps every entry to its short code. When dropUnknown
// is set, unrecognized entries are removed; otherwise they mark the list
// as unnormalizable and the caller skips the record.
func normalizeModifiers(modifiers []string, dropUnknown bool) ([]string, bool) {
	normalized := make([]string, 0, len(modifiers))
	hadUnknown := false
	for _, value := range modifiers {
		code, ok := domain.NormalizeModifier(value)
		if !ok {
			hadUnknown = true
			if dropUnknown {
				continue
			}
			// Keep the record intact; the caller will not write it.
			normalized = append(normalized, value)
			continue
		}
		normalized = append(normalized, code)
	}
	return normalized, hadUnknown
}
