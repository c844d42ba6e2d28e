package worker

import (
	"context"
	"time"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/repository"
	"github.com/batchbook/batchbook-backend/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BlobPollTimeout = 1 * time.Second
	SweepInterval   = 10 * time.Minute
	SweepBatchSize  = 100
)

// BlobQueue publishes blob public IDs onto the delete queue consumed by
// the cleanup worker.
type BlobQueue struct {
	rdb *redis.Client
}

// NewBlobQueue creates a new BlobQueue.
func NewBlobQueue(rdb *redis.Client) *BlobQueue {
	return &BlobQueue{rdb: rdb}
}

// Enqueue schedules a blob for deletion.
func (q *BlobQueue) Enqueue(ctx context.Context, publicID string) error {
	return q.rdb.LPush(ctx, config.WorkerKey.BlobDeleteQueue, publicID).Err()
}

// BlobCleanupWorker drains the delete queue and removes the blobs from the
// object store. A periodic sweep also reaps ledger rows stuck in pending,
// which happens when a memory insert failed after its upload succeeded.
type BlobCleanupWorker struct {
	rdb   *redis.Client
	store storage.BlobStore
	blobs *repository.BlobUploadRepository
	cfg   *config.Config
	log   zerolog.Logger
}

// NewBlobCleanupWorker creates a new BlobCleanupWorker.
func NewBlobCleanupWorker(rdb *redis.Client, store storage.BlobStore, blobs *repository.BlobUploadRepository, cfg *config.Config, log zerolog.Logger) *BlobCleanupWorker {
	return &BlobCleanupWorker{
		rdb:   rdb,
		store: store,
		blobs: blobs,
		cfg:   cfg,
		log:   log.With().Str("component", "blob_cleanup_worker").Logger(),
	}
}

// Start runs the worker until ctx is cancelled.
func (w *BlobCleanupWorker) Start(ctx context.Context) {
	w.log.Info().Msg("BlobCleanupWorker started")

	sweep := time.NewTicker(SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		case <-sweep.C:
			w.sweepStalePending(ctx)

		default:
			item, err := w.rdb.BLPop(ctx, BlobPollTimeout, config.WorkerKey.BlobDeleteQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			w.deleteBlob(ctx, item[1])
		}
	}
}

// deleteBlob removes one blob from the store and marks its ledger row.
// Failures requeue so a transient store outage does not leak the blob.
func (w *BlobCleanupWorker) deleteBlob(ctx context.Context, publicID string) {
	if err := w.store.Delete(ctx, publicID); err != nil {
		w.log.Error().Err(err).Str("public_id", publicID).Msg("blob delete failed — requeueing")
		if err := w.rdb.RPush(ctx, config.WorkerKey.BlobDeleteQueue, publicID).Err(); err != nil {
			w.log.Error().Err(err).Str("public_id", publicID).Msg("requeue failed")
		}
		return
	}

	if err := w.blobs.MarkDeleted(ctx, publicID); err != nil {
		w.log.Warn().Err(err).Str("public_id", publicID).Msg("ledger update failed")
	}
	w.log.Debug().Str("public_id", publicID).Msg("blob deleted")
}

// sweepStalePending queues blobs whose ledger row stayed pending past the
// configured age. Their owning memory row was never written.
func (w *BlobCleanupWorker) sweepStalePending(ctx context.Context) {
	stale, err := w.blobs.StalePending(ctx, w.cfg.OrphanBlobAge, SweepBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("stale pending sweep failed")
		return
	}
	if len(stale) == 0 {
		return
	}

	w.log.Info().Int("count", len(stale)).Msg("sweeping orphaned blobs")
	for _, b := range stale {
		if err := w.rdb.LPush(ctx, config.WorkerKey.BlobDeleteQueue, b.PublicID).Err(); err != nil {
			w.log.Error().Err(err).Str("public_id", b.PublicID).Msg("enqueue failed")
		}
	}
}
