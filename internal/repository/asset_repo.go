package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"gorm.io/gorm"
)

type SignatureRepository interface {
	Create(ctx context.Context, s *domain.Signature) error
	GetByID(ctx context.Context, id int) (*domain.Signature, error)
	List(ctx context.Context) ([]domain.Signature, error)
	Update(ctx context.Context, id int, updates map[string]any) (*domain.Signature, error)
	Delete(ctx context.Context, id int) error
}

type TemplateRepository interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByID(ctx context.Context, id int) (*domain.Template, error)
	GetActive(ctx context.Context) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Update(ctx context.Context, id int, updates map[string]any) (*domain.Template, error)
	SetActive(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

type GormSignatureRepo struct {
	db *gorm.DB
}

func NewGormSignatureRepo(db *gorm.DB) *GormSignatureRepo {
	return &GormSignatureRepo{db: db}
}

func (r *GormSignatureRepo) Create(ctx context.Context, s *domain.Signature) error {
	model := signatureModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if s != nil {
		*s = *signatureModelToDomain(model)
	}
	return nil
}

func (r *GormSignatureRepo) GetByID(ctx context.Context, id int) (*domain.Signature, error) {
	var model SignatureModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return signatureModelToDomain(&model), nil
}

func (r *GormSignatureRepo) List(ctx context.Context) ([]domain.Signature, error) {
	var models []SignatureModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	signatures := make([]domain.Signature, 0, len(models))
	for i := range models {
		signatures = append(signatures, *signatureModelToDomain(&models[i]))
	}
	return signatures, nil
}

func (r *GormSignatureRepo) Update(ctx context.Context, id int, updates map[string]any) (*domain.Signature, error) {
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&SignatureModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *GormSignatureRepo) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&SignatureModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type GormTemplateRepo struct {
	db *gorm.DB
}

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	model := templateModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if t != nil {
		*t = *templateModelToDomain(model)
	}
	return nil
}

func (r *GormTemplateRepo) GetByID(ctx context.Context, id int) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

func (r *GormTemplateRepo) GetActive(ctx context.Context) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.TemplateStatusActive).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

func (r *GormTemplateRepo) List(ctx context.Context) ([]domain.Template, error) {
	var models []TemplateModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	templates := make([]domain.Template, 0, len(models))
	for i := range models {
		templates = append(templates, *templateModelToDomain(&models[i]))
	}
	return templates, nil
}

func (r *GormTemplateRepo) Update(ctx context.Context, id int, updates map[string]any) (*domain.Template, error) {
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// SetActive deactivates every template and activates the chosen one in a
// single transaction so readers never observe two active rows.
func (r *GormTemplateRepo) SetActive(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&TemplateModel{}).
			Where("status = ?", domain.TemplateStatusActive).
			Updates(map[string]any{
				"status":     domain.TemplateStatusInactive,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		result := tx.Model(&TemplateModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     domain.TemplateStatusActive,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormTemplateRepo) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&TemplateModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
