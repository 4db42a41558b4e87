package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/api"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

// UpstreamScores is the slice of the ScoreSaber API the score syncer
// needs.
type UpstreamScores interface {
	LookupRecentScores(ctx context.Context, playerID string, page int) (*api.PlayerScoresResponse, error)
}

type ScoreWriter interface {
	ScoreExists(ctx context.Context, scoreID int64) (bool, error)
	Insert(ctx context.Context, s *domain.Score) error
	InsertScoreData(ctx context.Context, d *domain.ScoreData) error
	InsertScoreStats(ctx context.Context, s *domain.ScoreStats) error
}

// ScoreSyncer pulls a player's newest upstream scores into the local
// score tables. The recent page is newest-first, so a sync walks it
// until the first score that is already stored and only pays for what
// is new.
type ScoreSyncer struct {
	upstream UpstreamScores
	scores   ScoreWriter
	logger   zerolog.Logger
}

func NewScoreSyncer(upstream UpstreamScores, scores ScoreWriter, logger zerolog.Logger) *ScoreSyncer {
	return &ScoreSyncer{upstream: upstream, scores: scores, logger: logger}
}

// SyncRecent fetches the player's most recent scores and stores the
// ones not seen before, each with its auxiliary score_data and
// score_stats rows. Returns the number of scores inserted.
func (s *ScoreSyncer) SyncRecent(ctx context.Context, playerID string) (int, error) {
	resp, err := s.upstream.LookupRecentScores(ctx, playerID, 1)
	if err != nil {
		return 0, fmt.Errorf("upstream scores for %s: %w", playerID, err)
	}

	inserted := 0
	for _, entry := range resp.PlayerScores {
		exists, err := s.scores.ScoreExists(ctx, entry.Score.ID)
		if err != nil {
			return inserted, err
		}
		if exists {
			break
		}

		score := mapPlayerScore(playerID, entry)
		if err := s.scores.Insert(ctx, score); err != nil {
			return inserted, fmt.Errorf("inserting score %d: %w", score.ScoreID, err)
		}
		if err := s.scores.InsertScoreData(ctx, &domain.ScoreData{ScoreID: score.ScoreID, PlayerID: playerID}); err != nil {
			return inserted, err
		}
		if err := s.scores.InsertScoreStats(ctx, &domain.ScoreStats{ScoreID: score.ScoreID, PlayerID: playerID}); err != nil {
			return inserted, err
		}
		inserted++
	}

	if inserted > 0 {
		s.logger.Info().
			Str("player_id", playerID).
			Int("inserted", inserted).
			Msg("synced recent scores")
	}
	return inserted, nil
}

func mapPlayerScore(playerID string, entry api.PlayerScoreResponse) *domain.Score {
	score := &domain.Score{
		ScoreID:       entry.Score.ID,
		PlayerID:      playerID,
		LeaderboardID: entry.Leaderboard.ID,
		Score:         entry.Score.BaseScore,
		PP:            entry.Score.PP,
		Misses:        entry.Score.MissedNotes,
		MaxCombo:      entry.Score.MaxCombo,
		MaxScore:      entry.Leaderboard.MaxScore,
		Timestamp:     entry.Score.TimeSet,
	}
	if entry.Score.ModifiedScore > 0 {
		modified := entry.Score.ModifiedScore
		score.ModifiedScore = &modified
	}
	if entry.Score.Weight > 0 {
		weight := entry.Score.Weight
		score.Weight = &weight
	}
	if entry.Leaderboard.MaxScore > 0 {
		accuracy := float64(entry.Score.BaseScore) / float64(entry.Leaderboard.MaxScore) * 100
		score.Accuracy = &accuracy
	}
	if entry.Score.Modifiers != "" {
		score.Modifiers = strings.Split(entry.Score.Modifiers, ",")
	}
	return score
}
