package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/api"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/history"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/repository"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/service"

	"github.com/rs/zerolog"
)

var defaultHistoryFields = []string{
	"rank",
	"countryRank",
	"pp",
	"accuracy.averageRankedAccuracy",
}

// TrackerServer serves the JSON API: player lookup, track requests,
// score syncing, and the chart-ready history projection.
type TrackerServer struct {
	reconciler *service.Reconciler
	syncer     *service.ScoreSyncer
	players    service.PlayerStore
	snapshots  service.SnapshotStore
	scores     *repository.ScoreRepository
	logger     zerolog.Logger
}

func NewTrackerServer(reconciler *service.Reconciler, syncer *service.ScoreSyncer, players service.PlayerStore, snapshots service.SnapshotStore, scores *repository.ScoreRepository, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{
		reconciler: reconciler,
		syncer:     syncer,
		players:    players,
		snapshots:  snapshots,
		scores:     scores,
		logger:     logger,
	}
}

func (s *TrackerServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/player/{id}", s.handleGetPlayer)
	mux.HandleFunc("POST /api/player/{id}/track", s.handleTrackPlayer)
	mux.HandleFunc("POST /api/player/{id}/scores/sync", s.handleSyncScores)
	mux.HandleFunc("GET /api/player/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/player/{id}/leaderboard/{leaderboardID}/change", s.handleScoreChange)
	return mux
}

func (s *TrackerServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *TrackerServer) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if player == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("player is not tracked"))
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *TrackerServer) handleTrackPlayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	player, err := s.reconciler.TrackPlayer(ctx, r.PathValue("id"))
	if errors.Is(err, api.ErrPlayerNotFound) {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *TrackerServer) handleSyncScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := r.PathValue("id")

	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if player == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("player is not tracked"))
		return
	}

	inserted, err := s.syncer.SyncRecent(ctx, playerID)
	if errors.Is(err, api.ErrPlayerNotFound) {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

func (s *TrackerServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")

	days := constants.HistoryDaysDefault
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > constants.HistoryDaysMax {
			s.writeError(w, r, http.StatusBadRequest, errors.New("invalid days parameter"))
			return
		}
		days = parsed
	}

	fields := defaultHistoryFields
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}

	series, err := s.snapshots.GetSeries(r.Context(), playerID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	projection := history.ProjectSeries(series, fields, days, time.Now())
	writeJSON(w, http.StatusOK, projection)
}

func (s *TrackerServer) handleScoreChange(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")
	leaderboardID, err := strconv.ParseInt(r.PathValue("leaderboardID"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("invalid leaderboard id"))
		return
	}

	ctx := r.Context()
	current, err := s.scores.Latest(ctx, playerID, leaderboardID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if current == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("no scores on leaderboard"))
		return
	}

	previous, err := s.scores.Previous(ctx, playerID, leaderboardID, current.Timestamp)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if previous == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("no previous score to compare"))
		return
	}

	writeJSON(w, http.StatusOK, history.ComputeChange(current, previous))
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
