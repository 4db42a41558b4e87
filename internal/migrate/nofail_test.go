package migrate

import (
	"context"
	"testing"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackfillStore struct {
	scores []domain.Score
}

func (f *fakeBackfillStore) PageMissingModifiedScore(ctx context.Context, afterID int64, limit int) ([]domain.Score, error) {
	var page []domain.Score
	for _, s := range f.scores {
		if s.ID > afterID && s.ModifiedScore == nil {
			page = append(page, s)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeBackfillStore) SetModifiedScore(ctx context.Context, id, modifiedScore int64) error {
	for i := range f.scores {
		if f.scores[i].ID == id {
			f.scores[i].ModifiedScore = &modifiedScore
		}
	}
	return nil
}

func TestNoFailBackfill_DoublesScore(t *testing.T) {
	t.Parallel()

	store := &fakeBackfillStore{scores: []domain.Score{
		{ID: 1, Score: 1000, Modifiers: []string{"NF"}},
	}}

	job := NewNoFailBackfill(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Changed)
	require.NotNil(t, store.scores[0].ModifiedScore)
	assert.Equal(t, int64(2000), *store.scores[0].ModifiedScore)
}

func TestNoFailBackfill_LeavesNonNoFailUnset(t *testing.T) {
	t.Parallel()

	store := &fakeBackfillStore{scores: []domain.Score{
		{ID: 1, Score: 1000, Modifiers: []string{"GN"}},
		{ID: 2, Score: 500},
	}}

	job := NewNoFailBackfill(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, 2, progress.Scanned)
	assert.Equal(t, 0, progress.Changed)
	assert.Nil(t, store.scores[0].ModifiedScore)
	assert.Nil(t, store.scores[1].ModifiedScore)
}

func TestNoFailBackfill_RerunIsNoop(t *testing.T) {
	t.Parallel()

	store := &fakeBackfillStore{scores: []domain.Score{
		{ID: 1, Score: 1000, Modifiers: []string{"NF"}},
	}}

	job := NewNoFailBackfill(store, zerolog.Nop())
	_, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Scanned, "backfilled rows drop out of the page query")
	assert.Equal(t, 0, progress.Changed)
}

func TestNoFailBackfill_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := &fakeBackfillStore{scores: []domain.Score{
		{ID: 1, Score: 1000, Modifiers: []string{"NF"}},
	}}

	job := NewNoFailBackfill(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Changed)
	assert.Nil(t, store.scores[0].ModifiedScore)
}
