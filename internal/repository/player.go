package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

// Get returns the player or nil when the player is not tracked.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	var p domain.Player
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, country, rank, country_rank, pp, inactive, banned,
		       tracked_since, last_tracked, created_at, updated_at
		FROM players WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Country, &p.Rank, &p.CountryRank, &p.PP,
		&p.Inactive, &p.Banned, &p.TrackedSince, &p.LastTracked, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p *domain.Player) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (id, name, country, rank, country_rank, pp, inactive, banned,
		                     tracked_since, last_tracked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			rank = excluded.rank,
			country_rank = excluded.country_rank,
			pp = excluded.pp,
			inactive = excluded.inactive,
			banned = excluded.banned,
			last_tracked = excluded.last_tracked,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Country, p.Rank, p.CountryRank, p.PP, p.Inactive, p.Banned,
		p.TrackedSince, p.LastTracked, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", p.ID).Msg("failed to upsert player")
	}
	return err
}

func (r *PlayerRepository) SetLastTracked(ctx context.Context, id string, lastTracked time.Time) error {
	r.logger.Debug().
		Str("player_id", id).
		Time("last_tracked", lastTracked).
		Msg("setting last tracked")

	_, err := r.db.ExecContext(ctx, `
		UPDATE players SET last_tracked = ?, updated_at = ? WHERE id = ?
	`, lastTracked, time.Now(), id)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", id).Msg("failed to set last tracked")
	}
	return err
}

func (r *PlayerRepository) SetInactive(ctx context.Context, id string, inactive bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players SET inactive = ?, updated_at = ? WHERE id = ?
	`, inactive, time.Now(), id)
	return err
}

// ListTrackedIDs returns the ids of every player the tracker loop
// should reconcile. Banned players are excluded; inactive players stay
// listed so the reconciler can re-check them.
func (r *PlayerRepository) ListTrackedIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM players WHERE banned = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PlayerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
