package history

import (
	"sort"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"
)

// Projection is the chart contract: one label per calendar day and, for
// each requested field, a value slice aligned to the labels. A nil
// entry means no data for that day; values are never shifted to a
// neighbouring day.
type Projection struct {
	Labels []time.Time           `json:"labels"`
	Series map[string][]*float64 `json:"series"`
}

// SortHistory orders snapshots by date, most recent first. Stable, so
// unexpected duplicate dates keep their relative order.
func SortHistory(series []domain.StatisticSnapshot) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.After(series[j].Date)
	})
}

// ProjectSeries extracts the requested dotted-path fields for each of
// days consecutive calendar days ending at end. When end's day has no
// snapshot at all, the latest available snapshot date anchors the
// window instead.
func ProjectSeries(series []domain.StatisticSnapshot, fields []string, days int, end time.Time) Projection {
	projection := Projection{
		Series: make(map[string][]*float64, len(fields)),
	}
	if days <= 0 {
		for _, field := range fields {
			projection.Series[field] = nil
		}
		return projection
	}

	byDay := make(map[time.Time]*domain.StatisticSnapshot, len(series))
	var latest time.Time
	for i := range series {
		day := domain.MidnightUTC(series[i].Date)
		byDay[day] = &series[i]
		if day.After(latest) {
			latest = day
		}
	}

	anchor := domain.MidnightUTC(end)
	if _, ok := byDay[anchor]; !ok && !latest.IsZero() {
		anchor = latest
	}

	projection.Labels = make([]time.Time, 0, days)
	for _, field := range fields {
		projection.Series[field] = make([]*float64, 0, days)
	}

	for i := days - 1; i >= 0; i-- {
		day := anchor.AddDate(0, 0, -i)
		projection.Labels = append(projection.Labels, day)

		snapshot := byDay[day]
		for _, field := range fields {
			var value *float64
			if snapshot != nil {
				if v, ok := NumberAt(snapshot.Fields(), field); ok {
					value = &v
				}
			}
			projection.Series[field] = append(projection.Series[field], value)
		}
	}
	return projection
}

// ScoreChange is the day-over-day delta block between two plays of the
// same leaderboard.
type ScoreChange struct {
	Score    int64    `json:"score"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Misses   int      `json:"misses"`
	MaxCombo int      `json:"maxCombo"`
	PP       float64  `json:"pp"`
	Weight   *float64 `json:"weight,omitempty"`
}

// ComputeChange diffs current against previous. Accuracy falls back to
// score/maxScore when a side carries no direct accuracy; the weight
// delta exists only when both sides define weight.
func ComputeChange(current, previous *domain.Score) ScoreChange {
	change := ScoreChange{
		Score:    current.Score - previous.Score,
		Misses:   current.Misses - previous.Misses,
		MaxCombo: current.MaxCombo - previous.MaxCombo,
		PP:       current.PP - previous.PP,
	}

	if currAcc, ok := resolveAccuracy(current); ok {
		if prevAcc, ok := resolveAccuracy(previous); ok {
			delta := currAcc - prevAcc
			change.Accuracy = &delta
		}
	}

	if current.Weight != nil && previous.Weight != nil {
		delta := *current.Weight - *previous.Weight
		change.Weight = &delta
	}
	return change
}

func resolveAccuracy(s *domain.Score) (float64, bool) {
	if s.Accuracy != nil {
		return *s.Accuracy, true
	}
	if s.MaxScore > 0 {
		return float64(s.Score) / float64(s.MaxScore) * 100, true
	}
	return 0, false
}
