package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type ScoreRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewScoreRepository(sqlDB *sql.DB, logger zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{db: sqlDB, logger: logger}
}

const scoreColumns = `id, score_id, player_id, leaderboard_id, score, modified_score,
	accuracy, pp, weight, misses, max_combo, max_score, modifiers, timestamp`

func (r *ScoreRepository) Insert(ctx context.Context, s *domain.Score) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scores (score_id, player_id, leaderboard_id, score, modified_score,
		                    accuracy, pp, weight, misses, max_combo, max_score, modifiers, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ScoreID, s.PlayerID, s.LeaderboardID, s.Score, int64Arg(s.ModifiedScore),
		floatArg(s.Accuracy), s.PP, floatArg(s.Weight), s.Misses, s.MaxCombo,
		s.MaxScore, strings.Join(s.Modifiers, ","), s.Timestamp)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

// Latest returns the most recent score for (player, leaderboard), or
// nil when the player has never played it.
func (r *ScoreRepository) Latest(ctx context.Context, playerID string, leaderboardID int64) (*domain.Score, error) {
	return r.oneScore(ctx, fmt.Sprintf(`
		SELECT %s FROM scores WHERE player_id = ? AND leaderboard_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT 1
	`, scoreColumns), playerID, leaderboardID)
}

// Previous returns the most recent score for (player, leaderboard)
// strictly before the given time, or nil.
func (r *ScoreRepository) Previous(ctx context.Context, playerID string, leaderboardID int64, before time.Time) (*domain.Score, error) {
	return r.oneScore(ctx, fmt.Sprintf(`
		SELECT %s FROM scores WHERE player_id = ? AND leaderboard_id = ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC LIMIT 1
	`, scoreColumns), playerID, leaderboardID, before)
}

func (r *ScoreRepository) oneScore(ctx context.Context, query string, args ...any) (*domain.Score, error) {
	score, err := scanScore(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return score, nil
}

// DuplicateScoreIDs pages logical score ids that appear on more than
// one row, in ascending order starting after the cursor.
func (r *ScoreRepository) DuplicateScoreIDs(ctx context.Context, afterScoreID int64, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT score_id FROM scores WHERE score_id > ?
		GROUP BY score_id HAVING COUNT(*) > 1
		ORDER BY score_id LIMIT ?
	`, afterScoreID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ScoreRepository) ByScoreID(ctx context.Context, scoreID int64) ([]domain.Score, error) {
	return r.manyScores(ctx, fmt.Sprintf(`
		SELECT %s FROM scores WHERE score_id = ? ORDER BY id
	`, scoreColumns), scoreID)
}

func (r *ScoreRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM scores WHERE id IN (%s)`, placeholders), args...)
	return err
}

// Page walks scores in ascending internal-id order starting after the
// cursor.
func (r *ScoreRepository) Page(ctx context.Context, afterID int64, limit int) ([]domain.Score, error) {
	return r.manyScores(ctx, fmt.Sprintf(`
		SELECT %s FROM scores WHERE id > ? ORDER BY id LIMIT ?
	`, scoreColumns), afterID, limit)
}

// PageMissingModifiedScore walks scores lacking the derived
// modified_score field.
func (r *ScoreRepository) PageMissingModifiedScore(ctx context.Context, afterID int64, limit int) ([]domain.Score, error) {
	return r.manyScores(ctx, fmt.Sprintf(`
		SELECT %s FROM scores WHERE id > ? AND modified_score IS NULL ORDER BY id LIMIT ?
	`, scoreColumns), afterID, limit)
}

func (r *ScoreRepository) UpdateModifiers(ctx context.Context, id int64, modifiers []string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scores SET modifiers = ? WHERE id = ?`,
		strings.Join(modifiers, ","), id)
	return err
}

func (r *ScoreRepository) SetModifiedScore(ctx context.Context, id, modifiedScore int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scores SET modified_score = ? WHERE id = ?`, modifiedScore, id)
	return err
}

func (r *ScoreRepository) ScoreExists(ctx context.Context, scoreID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM scores WHERE score_id = ? LIMIT 1`, scoreID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ScoreRepository) manyScores(ctx context.Context, query string, args ...any) ([]domain.Score, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *score)
	}
	return scores, rows.Err()
}

func scanScore(row rowScanner) (*domain.Score, error) {
	var s domain.Score
	var modifiedScore sql.NullInt64
	var accuracy, weight sql.NullFloat64
	var modifiers string

	err := row.Scan(&s.ID, &s.ScoreID, &s.PlayerID, &s.LeaderboardID, &s.Score,
		&modifiedScore, &accuracy, &s.PP, &weight, &s.Misses, &s.MaxCombo,
		&s.MaxScore, &modifiers, &s.Timestamp)
	if err != nil {
		return nil, err
	}

	s.ModifiedScore = nullInt64(modifiedScore)
	s.Accuracy = nullFloat(accuracy)
	s.Weight = nullFloat(weight)
	if modifiers != "" {
		s.Modifiers = strings.Split(modifiers, ",")
	}
	return &s, nil
}

// AuxRecord is a score_data/score_stats row paired with its sqlite
// rowid, the monotonic cursor batch jobs resume from.
type AuxRecord struct {
	RowID    int64
	ID       string
	ScoreID  int64
	PlayerID string
}

func (r *ScoreRepository) InsertScoreData(ctx context.Context, d *domain.ScoreData) error {
	return r.insertAux(ctx, "score_data", &d.ID, d.ScoreID, d.PlayerID)
}

func (r *ScoreRepository) InsertScoreStats(ctx context.Context, s *domain.ScoreStats) error {
	return r.insertAux(ctx, "score_stats", &s.ID, s.ScoreID, s.PlayerID)
}

func (r *ScoreRepository) insertAux(ctx context.Context, table string, id *string, scoreID int64, playerID string) error {
	if *id == "" {
		generated, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		*id = generated
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, score_id, player_id, created_at) VALUES (?, ?, ?, ?)
	`, table), *id, scoreID, playerID, time.Now())
	return err
}

func (r *ScoreRepository) PageScoreData(ctx context.Context, afterRowID int64, limit int) ([]AuxRecord, error) {
	return r.pageAux(ctx, "score_data", afterRowID, limit)
}

func (r *ScoreRepository) PageScoreStats(ctx context.Context, afterRowID int64, limit int) ([]AuxRecord, error) {
	return r.pageAux(ctx, "score_stats", afterRowID, limit)
}

func (r *ScoreRepository) pageAux(ctx context.Context, table string, afterRowID int64, limit int) ([]AuxRecord, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rowid, id, score_id, player_id FROM %s WHERE rowid > ? ORDER BY rowid LIMIT ?
	`, table), afterRowID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AuxRecord
	for rows.Next() {
		var rec AuxRecord
		if err := rows.Scan(&rec.RowID, &rec.ID, &rec.ScoreID, &rec.PlayerID); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ScoreRepository) DeleteScoreData(ctx context.Context, ids []string) error {
	return r.deleteAux(ctx, "score_data", ids)
}

func (r *ScoreRepository) DeleteScoreStats(ctx context.Context, ids []string) error {
	return r.deleteAux(ctx, "score_stats", ids)
}

func (r *ScoreRepository) deleteAux(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, table, placeholders), args...)
	return err
}

func (r *ScoreRepository) CountScoreData(ctx context.Context) (int, error) {
	return r.countAux(ctx, "score_data")
}

func (r *ScoreRepository) CountScoreStats(ctx context.Context) (int, error) {
	return r.countAux(ctx, "score_stats")
}

func (r *ScoreRepository) countAux(ctx context.Context, table string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
	return count, err
}
