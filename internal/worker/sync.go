package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
)

// CollectionSyncer refreshes the collection from the metadata provider
type CollectionSyncer interface {
	Sync(ctx context.Context) (domain.SyncResult, error)
}

// SyncWorker periodically re-syncs the game collection
type SyncWorker struct {
	syncer  CollectionSyncer
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(syncer CollectionSyncer, cfg *config.SyncConfig, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		syncer: syncer,
		config: cfg,
		logger: logger,
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx, w.stopCh, w.doneCh)
	return nil
}

// Stop stops the background sync process and waits for the current cycle
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.syncCollection(ctx)
		}
	}
}

func (w *SyncWorker) syncCollection(ctx context.Context) {
	w.logger.Info("starting sync cycle")
	startTime := time.Now()

	result, err := w.syncer.Sync(ctx)
	if err != nil {
		w.logger.Error("collection sync failed", "error", err, "duration", time.Since(startTime))
		return
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"synced", result.Synced,
		"errors", result.Errors,
	)
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncCollection(ctx)
}
