package backup

import (
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/storage"
	"approachlog/internal/structures"
	"approachlog/internal/testutil"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	conf       *structures.Config
	store      *storage.RecordStore
	targets    *Targets
	dispatcher *Dispatcher
	logger     *testutil.MockLogger
}

func newSchedulerFixture(t *testing.T, backupDir string) *schedulerFixture {
	t.Helper()
	conf := &structures.Config{
		Storage: structures.StorageConfig{Path: filepath.Join(t.TempDir(), "approaches.db")},
		Backup: structures.BackupConfig{
			Enabled:        true,
			Dir:            backupDir,
			Prefix:         "police-data",
			RestoreOnEmpty: true,
		},
	}
	f := &schedulerFixture{conf: conf, logger: &testutil.MockLogger{}}

	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(comp.Close)

	f.targets, err = NewTargets(conf, comp, f.logger, &testutil.MockMetrics{})
	require.NoError(t, err)
	f.dispatcher = NewDispatcher(f.targets, f.logger)
	f.store = storage.NewRecordStore(conf, f.logger, &testutil.MockMetrics{}, testutil.NewMockCache(), f.dispatcher)
	t.Cleanup(func() {
		_ = f.dispatcher.Close(context.Background())
		_ = f.store.Close()
	})
	return f
}

func (f *schedulerFixture) scheduler() *Scheduler {
	return NewScheduler(f.conf, f.logger, f.store, f.targets, f.dispatcher).(*Scheduler)
}

func TestScheduler_WritesTriggerBackupAndRestoreRoundTrips(t *testing.T) {
	backupDir := t.TempDir()
	ctx := context.Background()

	first := newSchedulerFixture(t, backupDir)
	records := snapshot("r1", "r2", "r3")
	for i := range records {
		require.NoError(t, first.store.Put(ctx, &records[i]))
	}
	require.NoError(t, first.scheduler().Persist())

	second := newSchedulerFixture(t, backupDir)
	require.NoError(t, second.scheduler().Restore())

	got, err := second.store.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, records, got)
}

func TestScheduler_RestoreSkipsNonEmptyStore(t *testing.T) {
	backupDir := t.TempDir()
	ctx := context.Background()

	f := newSchedulerFixture(t, backupDir)
	current := snapshot("new")[0]
	require.NoError(t, f.store.Put(ctx, &current))
	require.NoError(t, f.scheduler().Persist())

	older, err := EncodeSnapshot(snapshot("old1", "old2"))
	require.NoError(t, err)
	_, err = NewDirectoryPicker(backupDir, "police-data").Save(ctx, "police-data-backup-2099-01-01.json", older)
	require.NoError(t, err)

	require.NoError(t, f.scheduler().Restore())

	got, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ApproachRecord{current}, got)
}

func TestScheduler_RestoreWithoutBackupIsNoOp(t *testing.T) {
	f := newSchedulerFixture(t, t.TempDir())
	require.NoError(t, f.scheduler().Restore())

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_RestoreDisabled(t *testing.T) {
	f := newSchedulerFixture(t, t.TempDir())
	f.conf.Backup.RestoreOnEmpty = false
	assert.NoError(t, f.scheduler().Restore())
}

func TestScheduler_PeriodicExport(t *testing.T) {
	backupDir := t.TempDir()
	f := newSchedulerFixture(t, backupDir)
	f.conf.Backup.Interval = time.Second

	ctx := context.Background()
	r := snapshot("r1")[0]
	require.NoError(t, f.store.Put(ctx, &r))

	s := f.scheduler()
	require.NoError(t, s.Persist())

	// only the periodic run can bring the backup back
	written, err := filepath.Glob(filepath.Join(backupDir, "police-data-*"))
	require.NoError(t, err)
	require.NotEmpty(t, written)
	for _, name := range written {
		require.NoError(t, os.Remove(name))
	}

	picker := NewDirectoryPicker(backupDir, "police-data")
	s.Init()
	defer s.Stop()
	assert.True(t, f.logger.Has(providers.TypeBackup, "Periodic backup every %s"))

	require.Eventually(t, func() bool {
		_, _, err := picker.Open(ctx)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	s.Stop()
	require.NoError(t, s.Persist())

	_, data, err := picker.Open(ctx)
	require.NoError(t, err)
	records, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, []models.ApproachRecord{r}, records)
}

func TestScheduler_NoPeriodicExportWhenDisabled(t *testing.T) {
	f := newSchedulerFixture(t, t.TempDir())
	s := f.scheduler()
	s.Init()
	assert.Nil(t, s.cron)
	assert.False(t, f.logger.Has(providers.TypeBackup, "Periodic backup every %s"))
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	f := newSchedulerFixture(t, t.TempDir())
	s := f.scheduler()
	assert.NotPanics(t, s.Stop)
}
