//go:build wireinject
// +build wireinject

package di

import (
	"approachlog/internal"
	"approachlog/internal/backup"
	"approachlog/internal/controllers"
	"approachlog/internal/providers"
	"approachlog/internal/services"
	"approachlog/internal/storage"
	"approachlog/internal/structures"

	wire "github.com/google/wire"
)

var coreSet = wire.NewSet(
	providers.NewConfigProvider,
	providers.NewLogProvider,
	providers.NewPrometheusRegisterer,
	providers.NewMetricsProvider,
	providers.NewInstrumentedCacheProvider,
	providers.NewIDProvider,

	backup.NewZstdCompressor,
	backup.NewTargets,
	backup.NewDispatcher,
	wire.Bind(new(storage.SnapshotSink), new(*backup.Dispatcher)),

	storage.NewRecordStore,
	wire.Bind(new(services.RecordStore), new(*storage.RecordStore)),
	wire.Bind(new(backup.RecordSource), new(*storage.RecordStore)),

	backup.NewScheduler,
	services.NewApproachService,
	internal.NewCore,
)

func InitCore(cfg *structures.CliFlags) (*internal.Core, error) {
	wire.Build(coreSet)

	return nil, nil
}

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {
	wire.Build(
		coreSet,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
