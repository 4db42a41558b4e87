package migrate

import (
	"context"
	"fmt"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/repository"

	"github.com/rs/zerolog"
)

type AuxStore interface {
	PageScoreData(ctx context.Context, afterRowID int64, limit int) ([]repository.AuxRecord, error)
	PageScoreStats(ctx context.Context, afterRowID int64, limit int) ([]repository.AuxRecord, error)
	DeleteScoreData(ctx context.Context, ids []string) error
	DeleteScoreStats(ctx context.Context, ids []string) error
	CountScoreData(ctx context.Context) (int, error)
	CountScoreStats(ctx context.Context) (int, error)
	ScoreExists(ctx context.Context, scoreID int64) (bool, error)
}

type PlayerExistsStore interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Orphans deletes score_data and score_stats rows whose owning player
// or owning score no longer exists. Existence checks go through a
// cache scoped to one run and discarded with it.
type Orphans struct {
	aux     AuxStore
	players PlayerExistsStore
	logger  zerolog.Logger
}

func NewOrphans(aux AuxStore, players PlayerExistsStore, logger zerolog.Logger) *Orphans {
	return &Orphans{aux: aux, players: players, logger: logger}
}

// existsCache memoizes player/score existence lookups for one run.
type existsCache struct {
	players map[string]bool
	scores  map[int64]bool
}

func newExistsCache() *existsCache {
	return &existsCache{
		players: make(map[string]bool),
		scores:  make(map[int64]bool),
	}
}

func (c *existsCache) playerExists(ctx context.Context, store PlayerExistsStore, id string) (bool, error) {
	if exists, ok := c.players[id]; ok {
		return exists, nil
	}
	exists, err := store.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	c.players[id] = exists
	return exists, nil
}

func (c *existsCache) scoreExists(ctx context.Context, store AuxStore, scoreID int64) (bool, error) {
	if exists, ok := c.scores[scoreID]; ok {
		return exists, nil
	}
	exists, err := store.ScoreExists(ctx, scoreID)
	if err != nil {
		return false, err
	}
	c.scores[scoreID] = exists
	return exists, nil
}

type auxTable struct {
	name   string
	page   func(context.Context, int64, int) ([]repository.AuxRecord, error)
	delete func(context.Context, []string) error
	count  func(context.Context) (int, error)
}

func (o *Orphans) Run(ctx context.Context, opts Options) (Progress, error) {
	cache := newExistsCache()

	tables := []auxTable{
		{"score_data", o.aux.PageScoreData, o.aux.DeleteScoreData, o.aux.CountScoreData},
		{"score_stats", o.aux.PageScoreStats, o.aux.DeleteScoreStats, o.aux.CountScoreStats},
	}
	if opts.Table != "" {
		found := false
		for _, table := range tables {
			if table.name == opts.Table {
				tables = []auxTable{table}
				found = true
				break
			}
		}
		if !found {
			return Progress{}, fmt.Errorf("unknown table %q", opts.Table)
		}
	}

	progress := Progress{LastID: opts.Cursor}
	for i, table := range tables {
		// The resume cursor is scoped to one table. It applies to the
		// first table swept; later tables start from the beginning.
		var cursor int64
		if i == 0 {
			cursor = opts.Cursor
		}
		for {
			records, err := table.page(ctx, cursor, opts.batchSize())
			if err != nil {
				return progress, err
			}
			if len(records) == 0 {
				break
			}

			var doomed []string
			for _, rec := range records {
				cursor = rec.RowID
				progress.LastID = cursor
				progress.Scanned++

				playerOK, err := cache.playerExists(ctx, o.players, rec.PlayerID)
				if err != nil {
					o.logger.Error().Err(err).Str("player_id", rec.PlayerID).Msg("failed to check player existence")
					progress.Skipped++
					continue
				}
				scoreOK, err := cache.scoreExists(ctx, o.aux, rec.ScoreID)
				if err != nil {
					o.logger.Error().Err(err).Int64("score_id", rec.ScoreID).Msg("failed to check score existence")
					progress.Skipped++
					continue
				}
				if playerOK && scoreOK {
					continue
				}

				progress.Matched++
				doomed = append(doomed, rec.ID)
			}

			if len(doomed) > 0 {
				if opts.Apply {
					if err := table.delete(ctx, doomed); err != nil {
						return progress, err
					}
				}
				progress.Changed += len(doomed)
			}

			remaining, err := table.count(ctx)
			if err != nil {
				return progress, err
			}
			o.logger.Info().
				Str("table", table.name).
				Int64("cursor", cursor).
				Int("remaining", remaining).
				Int("orphans_this_page", len(doomed)).
				Msg("orphan page processed")

			if progress.limitReached(opts) {
				progress.log(o.logger, "orphans", opts.Apply)
				return progress, nil
			}
		}
	}

	progress.log(o.logger, "orphans", opts.Apply)
	return progress, nil
}
