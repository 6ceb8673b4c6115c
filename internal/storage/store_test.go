package storage

import (
	"approachlog/internal/models"
	"approachlog/internal/structures"
	"approachlog/internal/testutil"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	store   *RecordStore
	sink    *testutil.RecordingSink
	cache   *testutil.MockCache
	metrics *testutil.MockMetrics
	logger  *testutil.MockLogger
}

func newFixture(t *testing.T) *storeFixture {
	t.Helper()
	conf := &structures.Config{
		Storage: structures.StorageConfig{Path: filepath.Join(t.TempDir(), "data", "approaches.db")},
	}
	f := &storeFixture{
		sink:    &testutil.RecordingSink{},
		cache:   testutil.NewMockCache(),
		metrics: &testutil.MockMetrics{},
		logger:  &testutil.MockLogger{},
	}
	f.store = NewRecordStore(conf, f.logger, f.metrics, f.cache, f.sink)
	t.Cleanup(func() { f.store.Close() })
	return f
}

func TestOpen_ConcurrentCallersShareOneHandle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.store.Open(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.logger.Occurrences("Record store opened at %s"))

	require.NoError(t, f.store.Open(ctx))
	assert.Equal(t, 1, f.logger.Occurrences("Record store opened at %s"))
}

func TestOpen_ReopenExistingFileKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approaches.db")
	conf := &structures.Config{Storage: structures.StorageConfig{Path: path}}
	ctx := context.Background()

	first := NewRecordStore(conf, &testutil.MockLogger{}, &testutil.MockMetrics{}, testutil.NewMockCache(), nil)
	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "João Silva", "111"))
	require.NoError(t, first.Put(ctx, &r))
	require.NoError(t, first.Close())

	second := NewRecordStore(conf, &testutil.MockLogger{}, &testutil.MockMetrics{}, testutil.NewMockCache(), nil)
	defer second.Close()

	got, err := second.GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r, *got)
}

func TestMigrations_IdempotentAndVersioned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Open(ctx))

	db, err := f.store.conn(ctx)
	require.NoError(t, err)

	version, err := schemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion(), version)

	// running again against an up to date schema is a no-op
	require.NoError(t, runMigrations(ctx, db))

	// structures that already exist are tolerated
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, migrateToV1(ctx, tx))
	require.NoError(t, migrateToV2(ctx, tx))
	require.NoError(t, tx.Rollback())
}

func TestPut_UpsertReplacesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "João Silva", "111"))
	require.NoError(t, f.store.Put(ctx, &r))

	updated := testutil.Record("1", "2024-01-01", testutil.Person("p1", "João da Silva", "999"))
	updated.Observations = "second version"
	require.NoError(t, f.store.Put(ctx, &updated))

	all, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, updated, all[0])
}

func TestPut_TriggersSnapshotWithFullSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", ""))
	b := testutil.Record("2", "2024-01-02", testutil.Person("p2", "B", ""))
	require.NoError(t, f.store.Put(ctx, &a))
	require.NoError(t, f.store.Put(ctx, &b))

	require.Equal(t, 2, f.sink.Len())
	assert.Len(t, f.sink.Snapshots[0], 1)
	assert.ElementsMatch(t, []models.ApproachRecord{a, b}, f.sink.Last())
	assert.Equal(t, 2, f.metrics.RecordsTotal)
}

func TestPut_RejectedWriteIsNotVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := testutil.Record("1", "2024-01-01", testutil.Person("p1", "Kept", ""))
	require.NoError(t, f.store.Put(ctx, &kept))
	snapshots := f.sink.Len()

	f.store.beforeCommit = func(op string) error { return ErrRejected }

	rejected := testutil.Record("2", "2024-01-02", testutil.Person("p2", "Rejected", ""))
	err := f.store.Put(ctx, &rejected)
	require.Error(t, err)
	assert.True(t, IsStorageFault(err))
	assert.ErrorIs(t, err, ErrRejected)

	overwrite := testutil.Record("1", "2024-01-03", testutil.Person("p1", "Overwritten", ""))
	require.Error(t, f.store.Put(ctx, &overwrite))

	f.store.beforeCommit = nil

	all, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ApproachRecord{kept}, all)

	got, err := f.store.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, snapshots, f.sink.Len(), "failed writes must not produce a backup")
}

func TestPut_MissingIDIsFault(t *testing.T) {
	f := newFixture(t)

	err := f.store.Put(context.Background(), &models.ApproachRecord{Date: "2024-01-01"})
	require.Error(t, err)
	assert.True(t, IsStorageFault(err))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestClosedStore_OperationsFault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Open(ctx))
	require.NoError(t, f.store.Close())

	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", ""))
	err := f.store.Put(ctx, &r)
	assert.True(t, IsStorageFault(err))

	_, err = f.store.GetAll(ctx)
	assert.True(t, IsStorageFault(err))
}

func TestGetByID_MissingIsNotAnError(t *testing.T) {
	f := newFixture(t)

	got, err := f.store.GetByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByID_UsesAndInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", ""))
	require.NoError(t, f.store.Put(ctx, &r))

	_, err := f.store.GetByID(ctx, "1")
	require.NoError(t, err)
	_, cached := f.cache.Get("1")
	assert.True(t, cached)

	r.Observations = "edited"
	require.NoError(t, f.store.Put(ctx, &r))
	_, cached = f.cache.Get("1")
	assert.False(t, cached)

	got, err := f.store.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Observations)
}

// blockingFillCache holds the first Set until released.
type blockingFillCache struct {
	*testutil.MockCache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *blockingFillCache) Set(key string, value []byte) {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	c.MockCache.Set(key, value)
}

func TestGetByID_FillRacingWriteDoesNotCacheStaleBody(t *testing.T) {
	conf := &structures.Config{
		Storage: structures.StorageConfig{Path: filepath.Join(t.TempDir(), "approaches.db")},
	}
	cache := &blockingFillCache{
		MockCache: testutil.NewMockCache(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	store := NewRecordStore(conf, &testutil.MockLogger{}, &testutil.MockMetrics{}, cache, nil)
	defer store.Close()
	ctx := context.Background()

	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "Old Name", ""))
	require.NoError(t, store.Put(ctx, &r))

	done := make(chan error, 1)
	go func() {
		_, err := store.GetByID(ctx, "1")
		done <- err
	}()
	<-cache.entered

	renamed := testutil.Record("1", "2024-01-01", testutil.Person("p1", "New Name", ""))
	require.NoError(t, store.Put(ctx, &renamed))
	close(cache.release)
	require.NoError(t, <-done)

	got, err := store.GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.People[0].Name)
}

// blockingSink holds the first Submit until released.
type blockingSink struct {
	testutil.RecordingSink
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Submit(records []models.ApproachRecord) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	s.RecordingSink.Submit(records)
}

func TestPut_ConcurrentWritesHandNewestSnapshotLast(t *testing.T) {
	conf := &structures.Config{
		Storage: structures.StorageConfig{Path: filepath.Join(t.TempDir(), "approaches.db")},
	}
	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewRecordStore(conf, &testutil.MockLogger{}, &testutil.MockMetrics{}, testutil.NewMockCache(), sink)
	defer store.Close()
	ctx := context.Background()

	a := testutil.Record("a", "2024-01-01", testutil.Person("p1", "A", ""))
	b := testutil.Record("b", "2024-01-02", testutil.Person("p2", "B", ""))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Put(ctx, &a))
	}()
	<-sink.entered

	go func() {
		defer wg.Done()
		assert.NoError(t, store.Put(ctx, &b))
	}()
	require.Eventually(t, func() bool {
		n, err := store.Count(ctx)
		return err == nil && n == 2
	}, 2*time.Second, 5*time.Millisecond)

	close(sink.release)
	wg.Wait()

	assert.ElementsMatch(t, []models.ApproachRecord{a, b}, sink.Last())
}

func TestDelete_RemovesAndIsSilentWhenAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", ""))
	require.NoError(t, f.store.Put(ctx, &r))
	require.NoError(t, f.store.Delete(ctx, "1"))
	require.NoError(t, f.store.Delete(ctx, "1"))

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, f.sink.Last())
}

func TestReplaceAll_SwapsContents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := testutil.Record("old", "2023-01-01", testutil.Person("p0", "Old", ""))
	require.NoError(t, f.store.Put(ctx, &old))
	_, _ = f.store.GetByID(ctx, "old")

	restored := []models.ApproachRecord{
		testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", "")),
		testutil.Record("2", "2024-02-01", testutil.Person("p2", "B", "")),
	}
	require.NoError(t, f.store.ReplaceAll(ctx, restored))

	all, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, restored, all)
	assert.Empty(t, f.cache.Data)
}

func TestReplaceAll_InvalidRecordKeepsPreviousContents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := testutil.Record("old", "2023-01-01", testutil.Person("p0", "Old", ""))
	require.NoError(t, f.store.Put(ctx, &old))

	err := f.store.ReplaceAll(ctx, []models.ApproachRecord{
		testutil.Record("1", "2024-01-01", testutil.Person("p1", "A", "")),
		{Date: "2024-01-02"},
	})
	require.Error(t, err)
	assert.True(t, IsStorageFault(err))

	all, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ApproachRecord{old}, all)
}

func TestStorageFault_Unwrap(t *testing.T) {
	err := fault("put", sql.ErrConnDone)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "record store put")

	// already a fault: not wrapped twice
	assert.Same(t, err, fault("get_all", err))
	assert.Nil(t, fault("put", nil))
}
