package backup

import (
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"context"
	"sync"
)

// Dispatcher exports snapshots in the background. Submit never blocks; while
// an export runs, newer snapshots replace older pending ones, so the latest
// full record set always reaches every gateway.
type Dispatcher struct {
	gateways []*Gateway
	logger   providers.Logger

	mu         sync.Mutex
	pending    []models.ApproachRecord
	hasPending bool
	submitted  uint64
	completed  uint64
	progress   chan struct{}
	closed     bool

	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(targets *Targets, logger providers.Logger) *Dispatcher {
	var gateways []*Gateway
	for _, g := range targets.All() {
		if g.Supported() {
			gateways = append(gateways, g)
		}
	}

	d := &Dispatcher{
		gateways: gateways,
		logger:   logger,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit queues records for export. It is a no-op when no gateway can write
// or after Close.
func (d *Dispatcher) Submit(records []models.ApproachRecord) {
	if len(d.gateways) == 0 {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warnf(providers.TypeBackup, "Snapshot of %d records dropped: dispatcher closed", len(records))
		return
	}
	d.pending = records
	d.hasPending = true
	d.submitted++
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.quit:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if !d.hasPending {
			d.mu.Unlock()
			return
		}
		records, seq := d.pending, d.submitted
		d.pending, d.hasPending = nil, false
		d.mu.Unlock()

		for _, g := range d.gateways {
			g.ExportSnapshot(context.Background(), records)
		}

		d.mu.Lock()
		d.completed = seq
		close(d.progress)
		d.progress = make(chan struct{})
		d.mu.Unlock()
	}
}

// Flush waits until every snapshot submitted before the call was exported.
func (d *Dispatcher) Flush(ctx context.Context) error {
	d.mu.Lock()
	target := d.submitted
	for d.completed < target {
		ch := d.progress
		d.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		d.mu.Lock()
	}
	d.mu.Unlock()
	return nil
}

// Close flushes outstanding snapshots and stops the worker.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	err := d.Flush(ctx)
	d.stopOnce.Do(func() { close(d.quit) })

	select {
	case <-d.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
