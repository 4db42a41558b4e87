package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestMerge_PresentFieldsOverwrite(t *testing.T) {
	t.Parallel()

	snapshot := &StatisticSnapshot{
		Rank: intPtr(100),
		PP:   floatPtr(5000),
	}

	snapshot.Merge(&StatisticSnapshot{
		Rank:                  intPtr(90),
		AverageRankedAccuracy: floatPtr(96.5),
	})

	require.NotNil(t, snapshot.Rank)
	assert.Equal(t, 90, *snapshot.Rank)
	require.NotNil(t, snapshot.PP)
	assert.Equal(t, 5000.0, *snapshot.PP)
	require.NotNil(t, snapshot.AverageRankedAccuracy)
	assert.Equal(t, 96.5, *snapshot.AverageRankedAccuracy)
}

func TestMerge_AbsentFieldsUntouched(t *testing.T) {
	t.Parallel()

	snapshot := &StatisticSnapshot{
		Rank:        intPtr(100),
		CountryRank: intPtr(10),
	}

	snapshot.Merge(&StatisticSnapshot{})

	require.NotNil(t, snapshot.Rank)
	assert.Equal(t, 100, *snapshot.Rank)
	require.NotNil(t, snapshot.CountryRank)
	assert.Equal(t, 10, *snapshot.CountryRank)
}

func TestFields_NestedDocument(t *testing.T) {
	t.Parallel()

	snapshot := &StatisticSnapshot{
		Rank:                  intPtr(50),
		PP:                    floatPtr(6000),
		AverageRankedAccuracy: floatPtr(95.5),
	}

	doc := snapshot.Fields()

	assert.Equal(t, 50.0, doc["rank"])
	assert.Equal(t, 6000.0, doc["pp"])

	accuracy, ok := doc["accuracy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 95.5, accuracy["averageRankedAccuracy"])

	_, hasScore := doc["score"]
	assert.False(t, hasScore, "empty sub-documents must be omitted")
}

func TestMidnightUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2025, 6, 15, 2, 30, 0, 0, loc) // 2025-06-14 21:30 UTC

	got := MidnightUTC(in)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), got)
}
