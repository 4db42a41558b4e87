package history

import (
	"testing"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) time.Time {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func rankSnapshot(playerID string, date time.Time, rank int) domain.StatisticSnapshot {
	return domain.StatisticSnapshot{PlayerID: playerID, Date: date, Rank: &rank}
}

func TestSortHistory_MostRecentFirst(t *testing.T) {
	t.Parallel()

	series := []domain.StatisticSnapshot{
		rankSnapshot("p1", day(-2), 3),
		rankSnapshot("p1", day(0), 1),
		rankSnapshot("p1", day(-1), 2),
	}

	SortHistory(series)

	require.Len(t, series, 3)
	assert.Equal(t, day(0), series[0].Date)
	assert.Equal(t, day(-1), series[1].Date)
	assert.Equal(t, day(-2), series[2].Date)
}

func TestProjectSeries_AlignsGapsToDays(t *testing.T) {
	t.Parallel()

	// Days -4 and -1 have data; -3, -2, and 0 do not. The anchor day
	// itself has no snapshot, so the window anchors on day -1, the
	// latest available date.
	series := []domain.StatisticSnapshot{
		rankSnapshot("p1", day(-4), 40),
		rankSnapshot("p1", day(-1), 10),
	}

	projection := ProjectSeries(series, []string{"rank"}, 4, day(0))

	require.Len(t, projection.Labels, 4)
	assert.Equal(t, day(-4), projection.Labels[0])
	assert.Equal(t, day(-1), projection.Labels[3])

	ranks := projection.Series["rank"]
	require.Len(t, ranks, 4)
	require.NotNil(t, ranks[0])
	assert.Equal(t, 40.0, *ranks[0])
	assert.Nil(t, ranks[1])
	assert.Nil(t, ranks[2])
	require.NotNil(t, ranks[3])
	assert.Equal(t, 10.0, *ranks[3])
}

func TestProjectSeries_AnchorsOnRequestedDayWhenPresent(t *testing.T) {
	t.Parallel()

	series := []domain.StatisticSnapshot{
		rankSnapshot("p1", day(0), 5),
		rankSnapshot("p1", day(-1), 6),
	}

	projection := ProjectSeries(series, []string{"rank"}, 2, day(0))

	require.Len(t, projection.Labels, 2)
	assert.Equal(t, day(-1), projection.Labels[0])
	assert.Equal(t, day(0), projection.Labels[1])
}

func TestProjectSeries_MissingFieldIsNil(t *testing.T) {
	t.Parallel()

	series := []domain.StatisticSnapshot{
		rankSnapshot("p1", day(0), 5),
	}

	projection := ProjectSeries(series, []string{"pp"}, 1, day(0))

	require.Len(t, projection.Series["pp"], 1)
	assert.Nil(t, projection.Series["pp"][0])
}

func TestProjectSeries_EmptySeries(t *testing.T) {
	t.Parallel()

	projection := ProjectSeries(nil, []string{"rank"}, 3, day(0))

	require.Len(t, projection.Labels, 3)
	for _, value := range projection.Series["rank"] {
		assert.Nil(t, value)
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestComputeChange_BasicDeltas(t *testing.T) {
	t.Parallel()

	current := &domain.Score{Score: 900, Misses: 1, MaxCombo: 300, PP: 120, Accuracy: floatPtr(96)}
	previous := &domain.Score{Score: 800, Misses: 4, MaxCombo: 250, PP: 100, Accuracy: floatPtr(92)}

	change := ComputeChange(current, previous)

	assert.Equal(t, int64(100), change.Score)
	assert.Equal(t, -3, change.Misses)
	assert.Equal(t, 50, change.MaxCombo)
	assert.Equal(t, 20.0, change.PP)
	require.NotNil(t, change.Accuracy)
	assert.Equal(t, 4.0, *change.Accuracy)
	assert.Nil(t, change.Weight)
}

func TestComputeChange_AccuracyFallbackFromMaxScore(t *testing.T) {
	t.Parallel()

	current := &domain.Score{Score: 900, MaxScore: 1000}
	previous := &domain.Score{Score: 800, MaxScore: 1000}

	change := ComputeChange(current, previous)

	require.NotNil(t, change.Accuracy)
	assert.InDelta(t, 10.0, *change.Accuracy, 1e-9)
}

func TestComputeChange_AccuracyAbsentWithoutSignal(t *testing.T) {
	t.Parallel()

	current := &domain.Score{Score: 900}
	previous := &domain.Score{Score: 800, Accuracy: floatPtr(90)}

	change := ComputeChange(current, previous)
	assert.Nil(t, change.Accuracy)
}

func TestComputeChange_WeightRequiresBothSides(t *testing.T) {
	t.Parallel()

	current := &domain.Score{Weight: floatPtr(0.8)}
	previous := &domain.Score{}
	assert.Nil(t, ComputeChange(current, previous).Weight)

	previous.Weight = floatPtr(0.5)
	change := ComputeChange(current, previous)
	require.NotNil(t, change.Weight)
	assert.InDelta(t, 0.3, *change.Weight, 1e-9)
}
