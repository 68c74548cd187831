package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(ctx context.Context, b *domain.DiplomaBatch) error
	GetByID(ctx context.Context, id int) (*domain.DiplomaBatch, error)
	List(ctx context.Context) ([]domain.DiplomaBatch, error)
	ListReceivedBefore(ctx context.Context, cutoff time.Time) ([]domain.DiplomaBatch, error)
	Update(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error)
	UpdateIfNotTerminal(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) Create(ctx context.Context, b *domain.DiplomaBatch) error {
	model := batchModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if b != nil {
		*b = *batchModelToDomain(model)
	}
	return nil
}

func (r *GormBatchRepo) GetByID(ctx context.Context, id int) (*domain.DiplomaBatch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) List(ctx context.Context) ([]domain.DiplomaBatch, error) {
	var models []BatchModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	batches := make([]domain.DiplomaBatch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}
	return batches, nil
}

// ListReceivedBefore returns batches stuck in received since before cutoff.
// This is the saga recovery query: a batch that never left received means an
// upload or publish failed mid-submission.
func (r *GormBatchRepo) ListReceivedBefore(ctx context.Context, cutoff time.Time) ([]domain.DiplomaBatch, error) {
	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.BatchStatusReceived, cutoff).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.DiplomaBatch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}
	return batches, nil
}

func (r *GormBatchRepo) Update(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ?", id).
		Updates(patchToUpdates(patch))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateIfNotTerminal applies a patch only while the batch is still in flight.
// The status guard lives in the UPDATE itself, so two racing callbacks cannot
// both get past it; the loser sees zero rows and a re-read tells conflict
// apart from not-found.
func (r *GormBatchRepo) UpdateIfNotTerminal(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status NOT IN ?", id, []domain.BatchStatus{
			domain.BatchStatusCompleted,
			domain.BatchStatusFailed,
		}).
		Updates(patchToUpdates(patch))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: batch %d is already %s", domain.ErrConflict, id, current.Status)
	}

	return r.GetByID(ctx, id)
}

func patchToUpdates(patch domain.BatchPatch) map[string]any {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.ZipURL != nil {
		updates["zip_url"] = *patch.ZipURL
	}
	if patch.CSVURL != nil {
		updates["csv_url"] = *patch.CSVURL
	}
	if patch.ClearZipURL {
		updates["zip_url"] = nil
	}
	if patch.ClearCSVURL {
		updates["csv_url"] = nil
	}
	if patch.FileName != nil {
		updates["file_name"] = *patch.FileName
	}
	if patch.TotalRecords != nil {
		updates["total_records"] = *patch.TotalRecords
	}
	return updates
}
