package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/objectstore"
	"github.com/pohualizcalli/academy-admin/internal/observability"
	"github.com/pohualizcalli/academy-admin/internal/queue"
	"github.com/pohualizcalli/academy-admin/internal/repository"
	"github.com/pohualizcalli/academy-admin/internal/roster"
	"go.uber.org/zap"
)

// objectStore is the slice of the storage gateway the services need. Keeping
// it local lets tests stand in a fake without touching AWS types.
type objectStore interface {
	Upload(ctx context.Context, body []byte, contentType, key string) (string, error)
	DeleteByRef(ctx context.Context, ref string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Presign(ctx context.Context, ref string, ttl time.Duration) (string, error)
	Now() time.Time
}

// BatchService orchestrates diploma batch submission: roster validation,
// database row, roster upload, and queue publish, in that order. Each step
// commits before the next starts, so a mid-pipeline failure leaves a batch
// stuck in received rather than silently lost. ListStuck surfaces those.
type BatchService struct {
	batches   repository.BatchRepository
	store     objectStore
	publisher queue.Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger

	stuckAfter time.Duration
}

func NewBatchService(
	batches repository.BatchRepository,
	store objectStore,
	publisher queue.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	stuckAfter time.Duration,
) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stuckAfter <= 0 {
		stuckAfter = 30 * time.Minute
	}
	return &BatchService{
		batches:    batches,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		stuckAfter: stuckAfter,
	}
}

// Submit runs the full submission pipeline for one roster upload. The
// returned batch is in received state with its roster URL attached; the
// worker moves it forward from there.
func (s *BatchService) Submit(ctx context.Context, createdBy, fileName string, csvData []byte) (*domain.DiplomaBatch, error) {
	if strings.TrimSpace(createdBy) == "" {
		return nil, fmt.Errorf("%w: createdBy is required", domain.ErrValidation)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: fileName is required", domain.ErrValidation)
	}

	// A header-only roster is accepted with zero records; only malformed
	// input is rejected.
	summary, err := roster.ParseBytes(csvData)
	if err != nil {
		return nil, err
	}

	batch := &domain.DiplomaBatch{
		FileName:     fileName,
		Status:       domain.BatchStatusReceived,
		TotalRecords: summary.TotalRecords,
		CreatedBy:    createdBy,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	s.metrics.IncBatchSubmitted()

	// The row exists from here on. On failure we return the error and leave
	// the batch in received; operators find it through ListStuck.
	key := objectstore.BatchCSVKey(fileName, batch.ID, s.store.Now())
	csvURL, err := s.store.Upload(ctx, csvData, "text/csv", key)
	if err != nil {
		s.metrics.IncBatchFailed("upload")
		s.logger.Error("roster upload failed, batch left in received",
			zap.Int("batch_id", batch.ID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.ObserveUploadBytes(len(csvData))

	updated, err := s.batches.Update(ctx, batch.ID, domain.BatchPatch{CSVURL: &csvURL})
	if err != nil {
		s.metrics.IncBatchFailed("attach")
		s.logger.Error("failed to attach roster url, batch left in received",
			zap.Int("batch_id", batch.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to attach roster url to batch %d: %w", batch.ID, err)
	}

	msg := queue.BatchMessage{
		CreatedBy: createdBy,
		FileName:  fileName,
		CSVURL:    csvURL,
		BatchID:   batch.ID,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.metrics.IncBatchFailed("publish")
		s.logger.Error("queue publish failed, batch left in received",
			zap.Int("batch_id", batch.ID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncBatchPublished()

	s.logger.Info("batch submitted",
		zap.Int("batch_id", batch.ID),
		zap.String("file_name", fileName),
		zap.Int("total_records", summary.TotalRecords),
	)
	return updated, nil
}

func (s *BatchService) List(ctx context.Context) ([]domain.DiplomaBatch, error) {
	return s.batches.List(ctx)
}

func (s *BatchService) Get(ctx context.Context, id int) (*domain.DiplomaBatch, error) {
	return s.batches.GetByID(ctx, id)
}

// ListStuck returns batches that have sat in received past the configured
// window, meaning their submission pipeline died after the row was created.
func (s *BatchService) ListStuck(ctx context.Context) ([]domain.DiplomaBatch, error) {
	cutoff := time.Now().UTC().Add(-s.stuckAfter)
	return s.batches.ListReceivedBefore(ctx, cutoff)
}

// Update applies an admin-initiated patch. Unlike the worker callback it may
// move a batch out of a terminal state, which operators use to requeue a
// failed batch by hand.
func (s *BatchService) Update(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no recognized fields to update", domain.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, *patch.Status)
	}
	return s.batches.Update(ctx, id, patch)
}

// ApplyWorkerUpdate applies a progress callback from the generation worker.
// Terminal batches reject further updates so a delayed or replayed callback
// cannot resurrect a finished batch.
func (s *BatchService) ApplyWorkerUpdate(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	if patch.IsEmpty() {
		s.metrics.IncWorkerCallback("invalid")
		return nil, fmt.Errorf("%w: no recognized fields to update", domain.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		s.metrics.IncWorkerCallback("invalid")
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, *patch.Status)
	}

	// The repository pushes the terminal guard into the UPDATE itself, so two
	// racing callbacks cannot both slip past a read-side check.
	updated, err := s.batches.UpdateIfNotTerminal(ctx, id, patch)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.IncWorkerCallback("not_found")
		return nil, err
	case errors.Is(err, domain.ErrConflict):
		s.metrics.IncWorkerCallback("conflict")
		return nil, err
	case err != nil:
		s.metrics.IncWorkerCallback("error")
		return nil, err
	}
	s.metrics.IncWorkerCallback("applied")

	if patch.Status != nil {
		s.logger.Info("worker callback applied",
			zap.Int("batch_id", id),
			zap.String("status", patch.Status.String()),
		)
	}
	return updated, nil
}
