package domain

import (
	"time"
)

type Player struct {
	ID           string
	Name         string
	Country      string
	Rank         int
	CountryRank  int
	PP           float64
	Inactive     bool
	Banned       bool
	TrackedSince time.Time
	LastTracked  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatisticSnapshot is one calendar day of statistics for one player,
// keyed by (PlayerID, Date) with Date aligned to midnight UTC. Every
// statistic field is optional: a snapshot carries only what was known
// when it was written, and later writes merge field-by-field.
type StatisticSnapshot struct {
	PlayerID string
	Date     time.Time

	Rank           *int
	CountryRank    *int
	PP             *float64
	PlusOnePP      *float64
	ReplaysWatched *int

	TotalScore       *int64
	TotalRankedScore *int64

	RankedScores      *int
	UnrankedScores    *int
	TotalRankedScores *int
	TotalScores       *int

	AverageRankedAccuracy   *float64
	AverageUnrankedAccuracy *float64
	AverageAccuracy         *float64
}

// Merge overlays other onto s: fields present on other overwrite,
// absent fields leave s untouched. This is the single merge rule for
// snapshot writes; a write is never a full-document replace.
func (s *StatisticSnapshot) Merge(other *StatisticSnapshot) {
	if other.Rank != nil {
		s.Rank = other.Rank
	}
	if other.CountryRank != nil {
		s.CountryRank = other.CountryRank
	}
	if other.PP != nil {
		s.PP = other.PP
	}
	if other.PlusOnePP != nil {
		s.PlusOnePP = other.PlusOnePP
	}
	if other.ReplaysWatched != nil {
		s.ReplaysWatched = other.ReplaysWatched
	}
	if other.TotalScore != nil {
		s.TotalScore = other.TotalScore
	}
	if other.TotalRankedScore != nil {
		s.TotalRankedScore = other.TotalRankedScore
	}
	if other.RankedScores != nil {
		s.RankedScores = other.RankedScores
	}
	if other.UnrankedScores != nil {
		s.UnrankedScores = other.UnrankedScores
	}
	if other.TotalRankedScores != nil {
		s.TotalRankedScores = other.TotalRankedScores
	}
	if other.TotalScores != nil {
		s.TotalScores = other.TotalScores
	}
	if other.AverageRankedAccuracy != nil {
		s.AverageRankedAccuracy = other.AverageRankedAccuracy
	}
	if other.AverageUnrankedAccuracy != nil {
		s.AverageUnrankedAccuracy = other.AverageUnrankedAccuracy
	}
	if other.AverageAccuracy != nil {
		s.AverageAccuracy = other.AverageAccuracy
	}
}

// Fields returns the snapshot as a nested document keyed the way chart
// configs address it ("rank", "accuracy.averageRankedAccuracy", ...).
// Absent fields are omitted entirely.
func (s *StatisticSnapshot) Fields() map[string]any {
	doc := make(map[string]any)

	putInt := func(m map[string]any, key string, v *int) {
		if v != nil {
			m[key] = float64(*v)
		}
	}
	putInt64 := func(m map[string]any, key string, v *int64) {
		if v != nil {
			m[key] = float64(*v)
		}
	}
	putFloat := func(m map[string]any, key string, v *float64) {
		if v != nil {
			m[key] = *v
		}
	}

	putInt(doc, "rank", s.Rank)
	putInt(doc, "countryRank", s.CountryRank)
	putFloat(doc, "pp", s.PP)
	putFloat(doc, "plusOnePp", s.PlusOnePP)
	putInt(doc, "replaysWatched", s.ReplaysWatched)

	score := make(map[string]any)
	putInt64(score, "totalScore", s.TotalScore)
	putInt64(score, "totalRankedScore", s.TotalRankedScore)
	if len(score) > 0 {
		doc["score"] = score
	}

	scores := make(map[string]any)
	putInt(scores, "rankedScores", s.RankedScores)
	putInt(scores, "unrankedScores", s.UnrankedScores)
	putInt(scores, "totalRankedScores", s.TotalRankedScores)
	putInt(scores, "totalScores", s.TotalScores)
	if len(scores) > 0 {
		doc["scores"] = scores
	}

	accuracy := make(map[string]any)
	putFloat(accuracy, "averageRankedAccuracy", s.AverageRankedAccuracy)
	putFloat(accuracy, "averageUnrankedAccuracy", s.AverageUnrankedAccuracy)
	putFloat(accuracy, "averageAccuracy", s.AverageAccuracy)
	if len(accuracy) > 0 {
		doc["accuracy"] = accuracy
	}

	return doc
}

// MidnightUTC aligns t to the start of its UTC calendar day, the
// canonical snapshot key.
func MidnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Score struct {
	ID            int64
	ScoreID       int64
	PlayerID      string
	LeaderboardID int64
	Score         int64
	ModifiedScore *int64
	Accuracy      *float64
	PP            float64
	Weight        *float64
	Misses        int
	MaxCombo      int
	MaxScore      int64
	Modifiers     []string
	Timestamp     time.Time
}

// ScoreData is auxiliary per-score payload (replay metadata and the
// like) owned by a (score, player) pair.
type ScoreData struct {
	ID        string // nanoid
	ScoreID   int64
	PlayerID  string
	CreatedAt time.Time
}

// ScoreStats is the denormalized per-score statistics row owned by a
// (score, player) pair.
type ScoreStats struct {
	ID        string // nanoid
	ScoreID   int64
	PlayerID  string
	CreatedAt time.Time
}
