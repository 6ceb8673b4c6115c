package internal

import (
	"approachlog/internal/backup"
	"approachlog/internal/backup/interfaces"
	"approachlog/internal/providers"
	"approachlog/internal/services"
	"approachlog/internal/storage"
	"approachlog/internal/structures"
	"context"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Core is the long-lived service graph shared by the HTTP server and the
// command line. It owns the single record store handle.
type Core struct {
	Config     *structures.Config
	Logger     providers.Logger
	Service    services.ApproachServiceInterface
	Store      *storage.RecordStore
	Targets    *backup.Targets
	Dispatcher *backup.Dispatcher
	Scheduler  interfaces.SchedulerInterface
	Metrics    providers.MetricsProviderInterface
	compressor interfaces.CompressorInterface
}

func NewCore(conf *structures.Config, logger providers.Logger, service services.ApproachServiceInterface, store *storage.RecordStore, targets *backup.Targets, dispatcher *backup.Dispatcher, scheduler interfaces.SchedulerInterface, metrics providers.MetricsProviderInterface, compressor interfaces.CompressorInterface) *Core {
	return &Core{
		Config:     conf,
		Logger:     logger,
		Service:    service,
		Store:      store,
		Targets:    targets,
		Dispatcher: dispatcher,
		Scheduler:  scheduler,
		Metrics:    metrics,
		compressor: compressor,
	}
}

// Open establishes the store handle up front so configuration errors
// surface before any work starts.
func (c *Core) Open(ctx context.Context) error {
	return c.Store.Open(ctx)
}

// PathGateway returns a gateway reading and writing one explicit file.
func (c *Core) PathGateway(path string) *backup.Gateway {
	b := c.Config.Backup
	return backup.NewGateway(backup.NewPathPicker(path), c.compressor, b.Compress, b.Prefix, c.Logger, c.Metrics)
}

// Close waits for pending backups, then releases the store and the logger.
func (c *Core) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	flushErr := c.Dispatcher.Close(ctx)
	if flushErr != nil {
		c.Logger.Errorf(providers.TypeBackup, "Pending backups not written: %s", flushErr)
	}
	storeErr := c.Store.Close()
	c.compressor.Close()
	c.Logger.Close()

	if storeErr != nil {
		return storeErr
	}
	return flushErr
}
