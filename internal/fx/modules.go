package fx

import (
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/api"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/config"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/database"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/logger"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/repository"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/server"
	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func provideReconciler(
	client *api.ScoreSaberClient,
	players *repository.PlayerRepository,
	snapshots *repository.SnapshotRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *service.Reconciler {
	return service.NewReconciler(client, players, snapshots, service.ReconcilerConfig{
		BatchSize:               cfg.TrackBatchSize,
		InactiveRecheckCooldown: cfg.InactiveRecheckCooldown,
	}, log)
}

func provideScoreSyncer(
	client *api.ScoreSaberClient,
	scores *repository.ScoreRepository,
	log zerolog.Logger,
) *service.ScoreSyncer {
	return service.NewScoreSyncer(client, scores, log)
}

func provideTrackerServer(
	reconciler *service.Reconciler,
	syncer *service.ScoreSyncer,
	players *repository.PlayerRepository,
	snapshots *repository.SnapshotRepository,
	scores *repository.ScoreRepository,
	log zerolog.Logger,
) *server.TrackerServer {
	return server.NewTrackerServer(reconciler, syncer, players, snapshots, scores, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewScoreRepository),
	// api client
	fx.Provide(api.NewScoreSaberClient),
	// svc
	fx.Provide(provideReconciler),
	fx.Provide(provideScoreSyncer),
	// server
	fx.Provide(provideTrackerServer),
)
