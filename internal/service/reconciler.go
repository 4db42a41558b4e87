package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/api"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/history"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// UpstreamLookup is the slice of the ScoreSaber API the reconciler
// needs.
type UpstreamLookup interface {
	LookupPlayer(ctx context.Context, playerID string) (*api.PlayerResponse, error)
}

type PlayerStore interface {
	Get(ctx context.Context, id string) (*domain.Player, error)
	Upsert(ctx context.Context, p *domain.Player) error
	SetLastTracked(ctx context.Context, id string, lastTracked time.Time) error
	SetInactive(ctx context.Context, id string, inactive bool) error
	ListTrackedIDs(ctx context.Context) ([]string, error)
}

type SnapshotStore interface {
	GetSeries(ctx context.Context, playerID string) ([]domain.StatisticSnapshot, error)
	GetAt(ctx context.Context, playerID string, date time.Time) (*domain.StatisticSnapshot, error)
	Upsert(ctx context.Context, s *domain.StatisticSnapshot) error
	UpsertBatch(ctx context.Context, snapshots []domain.StatisticSnapshot) error
}

// SkipReason classifies why a reconciliation attempt did no work.
// Skips are expected outcomes, not failures.
type SkipReason string

const (
	SkipNotFound SkipReason = "not_found"
	SkipInactive SkipReason = "inactive"
	SkipCooldown SkipReason = "cooldown"
)

type ReconcileResult struct {
	PlayerID string
	Skipped  SkipReason
	Seeded   bool
	Snapshot *domain.StatisticSnapshot
}

type ReconcilerConfig struct {
	// BatchSize bounds how many players RunDaily reconciles
	// concurrently within one batch.
	BatchSize int

	// InactiveRecheckCooldown, when non-zero, skips the upstream
	// lookup for a locally-inactive player until this long after the
	// last check.
	InactiveRecheckCooldown time.Duration
}

type Reconciler struct {
	upstream  UpstreamLookup
	players   PlayerStore
	snapshots SnapshotStore
	cfg       ReconcilerConfig
	logger    zerolog.Logger
}

func NewReconciler(upstream UpstreamLookup, players PlayerStore, snapshots SnapshotStore, cfg ReconcilerConfig, logger zerolog.Logger) *Reconciler {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 25
	}
	return &Reconciler{
		upstream:  upstream,
		players:   players,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
	}
}

// TrackPlayer starts tracking a new player: it looks the player up
// upstream, creates the local record, and runs a first reconciliation
// (which seeds the history).
func (r *Reconciler) TrackPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	existing, err := r.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stats, err := r.upstream.LookupPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	player := &domain.Player{
		ID:           stats.ID,
		Name:         stats.Name,
		Country:      stats.Country,
		Rank:         stats.Rank,
		CountryRank:  stats.CountryRank,
		PP:           stats.PP,
		Inactive:     stats.Inactive,
		Banned:       stats.Banned,
		TrackedSince: now,
		LastTracked:  now,
	}
	if err := r.players.Upsert(ctx, player); err != nil {
		return nil, err
	}

	r.logger.Info().Str("player_id", player.ID).Str("name", player.Name).Msg("now tracking player")

	if _, err := r.ReconcileDaily(ctx, player.ID, now); err != nil {
		return nil, err
	}
	return player, nil
}

// ReconcileDaily merges the player's freshly fetched upstream stats
// into today's snapshot. Not-found and inactive upstream states are
// classified skips. Calling it twice in the same calendar day with the
// same upstream response converges to the same stored snapshot.
func (r *Reconciler) ReconcileDaily(ctx context.Context, playerID string, today time.Time) (*ReconcileResult, error) {
	result := &ReconcileResult{PlayerID: playerID}

	player, err := r.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %s is not tracked", playerID)
	}

	if r.cfg.InactiveRecheckCooldown > 0 && player.Inactive &&
		time.Since(player.LastTracked) < r.cfg.InactiveRecheckCooldown {
		r.logger.Warn().
			Str("player_id", playerID).
			Dur("cooldown", r.cfg.InactiveRecheckCooldown).
			Msg("skipping inactive player within recheck cooldown")
		result.Skipped = SkipCooldown
		return result, nil
	}

	stats, err := r.upstream.LookupPlayer(ctx, playerID)
	if errors.Is(err, api.ErrPlayerNotFound) {
		r.logger.Warn().Str("player_id", playerID).Msg("player not found upstream, skipping")
		result.Skipped = SkipNotFound
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upstream lookup for %s: %w", playerID, err)
	}

	if stats.Inactive || stats.Banned {
		r.logger.Warn().
			Str("player_id", playerID).
			Bool("inactive", stats.Inactive).
			Bool("banned", stats.Banned).
			Msg("player inactive upstream, skipping")
		if err := r.players.SetInactive(ctx, playerID, true); err != nil {
			return nil, err
		}
		if err := r.players.SetLastTracked(ctx, playerID, time.Now()); err != nil {
			return nil, err
		}
		result.Skipped = SkipInactive
		return result, nil
	}

	player.Name = stats.Name
	player.Country = stats.Country
	player.Rank = stats.Rank
	player.CountryRank = stats.CountryRank
	player.PP = stats.PP
	player.Inactive = false
	if err := r.players.Upsert(ctx, player); err != nil {
		return nil, err
	}

	series, err := r.snapshots.GetSeries(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		if _, err := r.Seed(ctx, player, stats, today); err != nil {
			return nil, fmt.Errorf("seeding history for %s: %w", playerID, err)
		}
		result.Seeded = true
	}

	date := domain.MidnightUTC(today)
	snapshot, err := r.snapshots.GetAt(ctx, playerID, date)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &domain.StatisticSnapshot{PlayerID: playerID, Date: date}
	}

	rank := stats.Rank
	countryRank := stats.CountryRank
	pp := stats.PP
	avgRankedAccuracy := stats.ScoreStats.AverageRankedAccuracy
	snapshot.Merge(&domain.StatisticSnapshot{
		Rank:                  &rank,
		CountryRank:           &countryRank,
		PP:                    &pp,
		AverageRankedAccuracy: &avgRankedAccuracy,
	})

	if err := r.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := r.players.SetLastTracked(ctx, playerID, time.Now()); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Time("date", date).
		Int("rank", rank).
		Float64("pp", pp).
		Msg("reconciled daily snapshot")

	result.Snapshot = snapshot
	return result, nil
}

// Seed backfills a player's history from the upstream rank-history
// string. Only called when the stored series is empty; the caller
// guards that precondition. The history string is oldest-to-newest and
// rank-only, so one rank-only snapshot is written per prior calendar
// day, newest landing on today.
func (r *Reconciler) Seed(ctx context.Context, player *domain.Player, stats *api.PlayerResponse, today time.Time) ([]domain.StatisticSnapshot, error) {
	ranks := parseRankHistory(stats.Histories)
	ranks = append(ranks, stats.Rank)

	date := domain.MidnightUTC(today)
	snapshots := make([]domain.StatisticSnapshot, 0, len(ranks))
	for i := len(ranks) - 1; i >= 0; i-- {
		rank := ranks[i]
		snapshots = append(snapshots, domain.StatisticSnapshot{
			PlayerID: player.ID,
			Date:     date.AddDate(0, 0, -(len(ranks) - 1 - i)),
			Rank:     &rank,
		})
	}
	history.SortHistory(snapshots)

	if err := r.snapshots.UpsertBatch(ctx, snapshots); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("player_id", player.ID).
		Int("days", len(snapshots)).
		Msg("seeded rank history")
	return snapshots, nil
}

func parseRankHistory(histories string) []int {
	if histories == "" {
		return nil
	}

	parts := strings.Split(histories, ",")
	ranks := make([]int, 0, len(parts))
	for _, part := range parts {
		rank, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || rank < 1 {
			continue
		}
		ranks = append(ranks, rank)
	}
	return ranks
}

// RunSummary reports one tracker pass over all tracked players.
type RunSummary struct {
	Total      int
	Reconciled int
	Seeded     int
	Skipped    int
	Failed     int
}

// RunDaily reconciles every tracked player for today, in bounded
// concurrent batches. Per-player failures are counted and logged, never
// fatal to the run.
func (r *Reconciler) RunDaily(ctx context.Context, today time.Time) (RunSummary, error) {
	ids, err := r.players.ListTrackedIDs(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing tracked players: %w", err)
	}

	summary := RunSummary{Total: len(ids)}
	var mu sync.Mutex

	for start := 0; start < len(ids); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(ids))

		g, gCtx := errgroup.WithContext(ctx)
		for _, id := range ids[start:end] {
			g.Go(func() error {
				playerCtx, cancel := context.WithTimeout(gCtx, constants.ReconcileTimeout)
				defer cancel()

				result, err := r.ReconcileDaily(playerCtx, id, today)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					summary.Failed++
					r.logger.Error().Err(err).Str("player_id", id).Msg("failed to reconcile player")
				case result.Skipped != "":
					summary.Skipped++
				default:
					summary.Reconciled++
					if result.Seeded {
						summary.Seeded++
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
	}

	r.logger.Info().
		Int("total", summary.Total).
		Int("reconciled", summary.Reconciled).
		Int("seeded", summary.Seeded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("tracker pass completed")
	return summary, nil
}
