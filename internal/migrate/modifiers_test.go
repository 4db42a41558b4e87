package migrate

import (
	"context"
	"testing"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModifierStore struct {
	scores  []domain.Score
	updates map[int64][]string
}

func (f *fakeModifierStore) Page(ctx context.Context, afterID int64, limit int) ([]domain.Score, error) {
	var page []domain.Score
	for _, s := range f.scores {
		if s.ID > afterID {
			page = append(page, s)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeModifierStore) UpdateModifiers(ctx context.Context, id int64, modifiers []string) error {
	if f.updates == nil {
		f.updates = make(map[int64][]string)
	}
	f.updates[id] = modifiers
	for i := range f.scores {
		if f.scores[i].ID == id {
			f.scores[i].Modifiers = modifiers
		}
	}
	return nil
}

func TestModifiers_NormalizesMixedLegacyAndCanonical(t *testing.T) {
	t.Parallel()

	store := &fakeModifierStore{scores: []domain.Score{
		{ID: 1, Modifiers: []string{"No Fail", "NF"}},
	}}

	job := NewModifiers(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Changed)
	assert.Equal(t, []string{"NF", "NF"}, store.updates[1])
}

func TestModifiers_AlreadyCanonicalNotWritten(t *testing.T) {
	t.Parallel()

	store := &fakeModifierStore{scores: []domain.Score{
		{ID: 1, Modifiers: []string{"NF"}},
	}}

	job := NewModifiers(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Scanned)
	assert.Equal(t, 0, progress.Matched)
	assert.Equal(t, 0, progress.Changed)
	assert.Empty(t, store.updates, "no-change records must not be written")
}

func TestModifiers_UnknownEntrySkipsWholeRecord(t *testing.T) {
	t.Parallel()

	store := &fakeModifierStore{scores: []domain.Score{
		{ID: 1, Modifiers: []string{"No Fail", "Turbo Mode"}},
	}}

	job := NewModifiers(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Skipped)
	assert.Equal(t, 0, progress.Changed)
	assert.Empty(t, store.updates, "record with unknown entry must not be partially migrated")
}

func TestModifiers_DropUnknownMode(t *testing.T) {
	t.Parallel()

	store := &fakeModifierStore{scores: []domain.Score{
		{ID: 1, Modifiers: []string{"No Fail", "Turbo Mode", "Ghost Notes"}},
	}}

	job := NewModifiers(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{Apply: true, DropUnknown: true})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Changed)
	assert.Equal(t, []string{"NF", "GN"}, store.updates[1])
}

func TestModifiers_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := &fakeModifierStore{scores: []domain.Score{
		{ID: 1, Modifiers: []string{"No Fail"}},
	}}

	job := NewModifiers(store, zerolog.Nop())
	progress, err := job.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, progress.Changed)
	assert.Empty(t, store.updates)
}
