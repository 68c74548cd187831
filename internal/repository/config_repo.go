package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfigurationRepository interface {
	Get(ctx context.Context) (*domain.Configuration, error)
	Upsert(ctx context.Context, c *domain.Configuration) (*domain.Configuration, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Upsert(ctx context.Context, u *domain.User) (*domain.User, error)
}

type GormConfigurationRepo struct {
	db *gorm.DB
}

func NewGormConfigurationRepo(db *gorm.DB) *GormConfigurationRepo {
	return &GormConfigurationRepo{db: db}
}

// Get returns the single configuration row, or ErrNotFound before first save.
func (r *GormConfigurationRepo) Get(ctx context.Context) (*domain.Configuration, error) {
	var model ConfigurationModel
	err := r.db.WithContext(ctx).Order("id ASC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return configurationModelToDomain(&model)
}

func (r *GormConfigurationRepo) Upsert(ctx context.Context, c *domain.Configuration) (*domain.Configuration, error) {
	existing, err := r.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	model, err := configurationModelFromDomain(c)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return nil, err
		}
		return configurationModelToDomain(model)
	}

	updates := map[string]any{
		"field_mappings": model.FieldMappings,
		"updated_by":     model.UpdatedBy,
		"updated_at":     time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).
		Model(&ConfigurationModel{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return r.Get(ctx)
}

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return userModelToDomain(&model), nil
}

func (r *GormUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return userModelToDomain(&model), nil
}

func (r *GormUserRepo) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	model := userModelFromDomain(u)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "first_name", "last_name", "profile_image_url", "role", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return nil, err
	}
	return userModelToDomain(model), nil
}
