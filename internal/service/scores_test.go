package service

import (
	"context"
	"testing"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/api"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScoreUpstream struct {
	response *api.PlayerScoresResponse
	err      error
}

func (f *fakeScoreUpstream) LookupRecentScores(ctx context.Context, playerID string, page int) (*api.PlayerScoresResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeScoreWriter struct {
	existing map[int64]bool
	scores   []*domain.Score
	data     []*domain.ScoreData
	stats    []*domain.ScoreStats
}

func (f *fakeScoreWriter) ScoreExists(ctx context.Context, scoreID int64) (bool, error) {
	return f.existing[scoreID], nil
}

func (f *fakeScoreWriter) Insert(ctx context.Context, s *domain.Score) error {
	f.scores = append(f.scores, s)
	return nil
}

func (f *fakeScoreWriter) InsertScoreData(ctx context.Context, d *domain.ScoreData) error {
	f.data = append(f.data, d)
	return nil
}

func (f *fakeScoreWriter) InsertScoreStats(ctx context.Context, s *domain.ScoreStats) error {
	f.stats = append(f.stats, s)
	return nil
}

func recentScore(scoreID, leaderboardID int64) api.PlayerScoreResponse {
	return api.PlayerScoreResponse{
		Score: api.ScoreResponse{
			ID:        scoreID,
			BaseScore: 900,
			PP:        120,
			TimeSet:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		},
		Leaderboard: api.LeaderboardResponse{ID: leaderboardID, MaxScore: 1000},
	}
}

func TestSyncRecent_InsertsNewScoresWithAuxRows(t *testing.T) {
	t.Parallel()

	upstream := &fakeScoreUpstream{response: &api.PlayerScoresResponse{
		PlayerScores: []api.PlayerScoreResponse{
			recentScore(11, 3),
			recentScore(10, 4),
		},
	}}
	writer := &fakeScoreWriter{existing: map[int64]bool{}}

	syncer := NewScoreSyncer(upstream, writer, zerolog.Nop())
	inserted, err := syncer.SyncRecent(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, inserted)
	require.Len(t, writer.scores, 2)
	require.Len(t, writer.data, 2)
	require.Len(t, writer.stats, 2)

	assert.Equal(t, int64(11), writer.scores[0].ScoreID)
	assert.Equal(t, "p1", writer.scores[0].PlayerID)
	assert.Equal(t, int64(11), writer.data[0].ScoreID)
	assert.Equal(t, int64(11), writer.stats[0].ScoreID)
	assert.Equal(t, "p1", writer.data[0].PlayerID)
}

func TestSyncRecent_StopsAtFirstKnownScore(t *testing.T) {
	t.Parallel()

	upstream := &fakeScoreUpstream{response: &api.PlayerScoresResponse{
		PlayerScores: []api.PlayerScoreResponse{
			recentScore(12, 3),
			recentScore(11, 4), // already stored
			recentScore(10, 5),
		},
	}}
	writer := &fakeScoreWriter{existing: map[int64]bool{11: true}}

	syncer := NewScoreSyncer(upstream, writer, zerolog.Nop())
	inserted, err := syncer.SyncRecent(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, inserted)
	require.Len(t, writer.scores, 1)
	assert.Equal(t, int64(12), writer.scores[0].ScoreID)
}

func TestSyncRecent_EmptyPageIsNoop(t *testing.T) {
	t.Parallel()

	upstream := &fakeScoreUpstream{response: &api.PlayerScoresResponse{}}
	writer := &fakeScoreWriter{existing: map[int64]bool{}}

	syncer := NewScoreSyncer(upstream, writer, zerolog.Nop())
	inserted, err := syncer.SyncRecent(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Empty(t, writer.scores)
}

func TestSyncRecent_MapsScoreFields(t *testing.T) {
	t.Parallel()

	entry := recentScore(11, 3)
	entry.Score.ModifiedScore = 1800
	entry.Score.Weight = 0.85
	entry.Score.Modifiers = "NF,GN"
	entry.Score.MissedNotes = 2
	entry.Score.MaxCombo = 310

	upstream := &fakeScoreUpstream{response: &api.PlayerScoresResponse{
		PlayerScores: []api.PlayerScoreResponse{entry},
	}}
	writer := &fakeScoreWriter{existing: map[int64]bool{}}

	syncer := NewScoreSyncer(upstream, writer, zerolog.Nop())
	_, err := syncer.SyncRecent(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, writer.scores, 1)
	score := writer.scores[0]
	assert.Equal(t, int64(900), score.Score)
	assert.Equal(t, int64(3), score.LeaderboardID)
	assert.Equal(t, int64(1000), score.MaxScore)
	assert.Equal(t, 2, score.Misses)
	assert.Equal(t, 310, score.MaxCombo)
	assert.Equal(t, []string{"NF", "GN"}, score.Modifiers)

	require.NotNil(t, score.ModifiedScore)
	assert.Equal(t, int64(1800), *score.ModifiedScore)
	require.NotNil(t, score.Weight)
	assert.InDelta(t, 0.85, *score.Weight, 1e-9)
	require.NotNil(t, score.Accuracy)
	assert.InDelta(t, 90.0, *score.Accuracy, 1e-9)
}
