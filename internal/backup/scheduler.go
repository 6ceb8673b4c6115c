package backup

import (
	"approachlog/internal/backup/interfaces"
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/structures"
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

const flushTimeout = 30 * time.Second

// RecordSource is the part of the record store the scheduler drives.
type RecordSource interface {
	PublishSnapshot(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	ReplaceAll(ctx context.Context, records []models.ApproachRecord) error
}

type Scheduler struct {
	config     *structures.Config
	logger     providers.Logger
	store      RecordSource
	targets    *Targets
	dispatcher *Dispatcher

	opsMu sync.Mutex
	cron  *gron.Cron
}

// Init starts the periodic full export when backup.interval is set. gron
// fires on whole seconds, so shorter intervals run once a second.
func (s *Scheduler) Init() {
	interval := s.config.Backup.Interval
	if interval <= 0 || !s.targets.Primary.Supported() {
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), s.exportAll)
	s.cron.Start()
	s.logger.Infof(providers.TypeBackup, "Periodic backup every %s", interval)
}

func (s *Scheduler) exportAll() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if err := s.store.PublishSnapshot(context.Background()); err != nil {
		s.logger.Errorf(providers.TypeBackup, "Error while reading records for periodic backup: %s", err)
	}
}

// Stop halts the periodic export and waits for a running one to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.opsMu.Lock()
	s.cron = nil
	s.opsMu.Unlock()
}

// Restore loads the newest primary backup into an empty store when
// backup.restoreOnEmpty is set. A missing backup is not an error.
func (s *Scheduler) Restore() error {
	if !s.config.Backup.RestoreOnEmpty || !s.targets.Primary.Supported() {
		return nil
	}

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx := context.Background()
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	records := s.targets.Primary.ImportSnapshot(ctx)
	if len(records) == 0 {
		return nil
	}
	if err := s.store.ReplaceAll(ctx, records); err != nil {
		return err
	}
	s.logger.Infof(providers.TypeBackup, "Restored %d records from backup into empty store", len(records))
	return nil
}

// Persist waits for queued snapshots to be written.
func (s *Scheduler) Persist() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	s.logger.Infof(providers.TypeBackup, "Flushing pending backups...")
	if err := s.dispatcher.Flush(ctx); err != nil {
		s.logger.Errorf(providers.TypeBackup, "Error while flushing backups: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, store RecordSource, targets *Targets, dispatcher *Dispatcher) interfaces.SchedulerInterface {
	return &Scheduler{
		config:     config,
		logger:     logger,
		store:      store,
		targets:    targets,
		dispatcher: dispatcher,
	}
}
