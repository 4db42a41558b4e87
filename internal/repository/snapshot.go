package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: sqlDB, logger: logger}
}

const snapshotColumns = `player_id, date, rank, country_rank, pp, plus_one_pp,
	replays_watched, total_score, total_ranked_score, ranked_scores,
	unranked_scores, total_ranked_scores, total_scores,
	average_ranked_accuracy, average_unranked_accuracy, average_accuracy`

// GetSeries returns every snapshot for the player, most recent first.
func (r *SnapshotRepository) GetSeries(ctx context.Context, playerID string) ([]domain.StatisticSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM player_statistics WHERE player_id = ? ORDER BY date DESC
	`, snapshotColumns), playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []domain.StatisticSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, *snapshot)
	}
	return series, rows.Err()
}

// GetAt returns the snapshot at the given day, or nil when none exists.
func (r *SnapshotRepository) GetAt(ctx context.Context, playerID string, date time.Time) (*domain.StatisticSnapshot, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM player_statistics WHERE player_id = ? AND date = ?
	`, snapshotColumns), playerID, domain.MidnightUTC(date))

	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Upsert writes a snapshot with field-level merge semantics: columns
// the snapshot carries overwrite, absent columns keep their stored
// value. Never a full-row replace.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *domain.StatisticSnapshot) error {
	_, err := r.db.ExecContext(ctx, upsertSnapshotSQL, upsertSnapshotArgs(s)...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("player_id", s.PlayerID).
			Time("date", s.Date).
			Msg("failed to upsert snapshot")
	}
	return err
}

// UpsertBatch writes many snapshots in one transaction, used by
// history seeding.
func (r *SnapshotRepository) UpsertBatch(ctx context.Context, snapshots []domain.StatisticSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range snapshots {
		if _, err := tx.ExecContext(ctx, upsertSnapshotSQL, upsertSnapshotArgs(&snapshots[i])...); err != nil {
			return fmt.Errorf("failed to upsert snapshot for %s: %w", snapshots[i].PlayerID, err)
		}
	}

	return tx.Commit()
}

var upsertSnapshotSQL = fmt.Sprintf(`
	INSERT INTO player_statistics (%s)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(player_id, date) DO UPDATE SET
		rank = COALESCE(excluded.rank, rank),
		country_rank = COALESCE(excluded.country_rank, country_rank),
		pp = COALESCE(excluded.pp, pp),
		plus_one_pp = COALESCE(excluded.plus_one_pp, plus_one_pp),
		replays_watched = COALESCE(excluded.replays_watched, replays_watched),
		total_score = COALESCE(excluded.total_score, total_score),
		total_ranked_score = COALESCE(excluded.total_ranked_score, total_ranked_score),
		ranked_scores = COALESCE(excluded.ranked_scores, ranked_scores),
		unranked_scores = COALESCE(excluded.unranked_scores, unranked_scores),
		total_ranked_scores = COALESCE(excluded.total_ranked_scores, total_ranked_scores),
		total_scores = COALESCE(excluded.total_scores, total_scores),
		average_ranked_accuracy = COALESCE(excluded.average_ranked_accuracy, average_ranked_accuracy),
		average_unranked_accuracy = COALESCE(excluded.average_unranked_accuracy, average_unranked_accuracy),
		average_accuracy = COALESCE(excluded.average_accuracy, average_accuracy)
`, snapshotColumns)

func upsertSnapshotArgs(s *domain.StatisticSnapshot) []any {
	return []any{
		s.PlayerID, domain.MidnightUTC(s.Date),
		intArg(s.Rank), intArg(s.CountryRank), floatArg(s.PP), floatArg(s.PlusOnePP),
		intArg(s.ReplaysWatched), int64Arg(s.TotalScore), int64Arg(s.TotalRankedScore),
		intArg(s.RankedScores), intArg(s.UnrankedScores), intArg(s.TotalRankedScores),
		intArg(s.TotalScores), floatArg(s.AverageRankedAccuracy),
		floatArg(s.AverageUnrankedAccuracy), floatArg(s.AverageAccuracy),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.StatisticSnapshot, error) {
	var s domain.StatisticSnapshot
	var rank, countryRank, replaysWatched sql.NullInt64
	var rankedScores, unrankedScores, totalRankedScores, totalScores sql.NullInt64
	var totalScore, totalRankedScore sql.NullInt64
	var pp, plusOnePP, avgRanked, avgUnranked, avgAll sql.NullFloat64

	err := row.Scan(&s.PlayerID, &s.Date, &rank, &countryRank, &pp, &plusOnePP,
		&replaysWatched, &totalScore, &totalRankedScore, &rankedScores,
		&unrankedScores, &totalRankedScores, &totalScores,
		&avgRanked, &avgUnranked, &avgAll)
	if err != nil {
		return nil, err
	}

	s.Rank = nullInt(rank)
	s.CountryRank = nullInt(countryRank)
	s.PP = nullFloat(pp)
	s.PlusOnePP = nullFloat(plusOnePP)
	s.ReplaysWatched = nullInt(replaysWatched)
	s.TotalScore = nullInt64(totalScore)
	s.TotalRankedScore = nullInt64(totalRankedScore)
	s.RankedScores = nullInt(rankedScores)
	s.UnrankedScores = nullInt(unrankedScores)
	s.TotalRankedScores = nullInt(totalRankedScores)
	s.TotalScores = nullInt(totalScores)
	s.AverageRankedAccuracy = nullFloat(avgRanked)
	s.AverageUnrankedAccuracy = nullFloat(avgUnranked)
	s.AverageAccuracy = nullFloat(avgAll)
	return &s, nil
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
