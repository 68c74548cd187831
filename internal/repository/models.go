package repository

import (
	"encoding/json"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"gorm.io/datatypes"
)

// BatchModel is the persistence model for the diploma_batches table.
type BatchModel struct {
	ID           int                `gorm:"primaryKey;autoIncrement"`
	FileName     string             `gorm:"type:varchar(255);not null"`
	Status       domain.BatchStatus `gorm:"type:varchar(20);not null"`
	TotalRecords int                `gorm:"not null"`
	CSVURL       *string            `gorm:"column:csv_url;type:text"`
	ZipURL       *string            `gorm:"column:zip_url;type:text"`
	CreatedBy    string             `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (BatchModel) TableName() string {
	return "diploma_batches"
}

// SignatureModel is the persistence model for signatures.
type SignatureModel struct {
	ID            int    `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"type:varchar(255);not null"`
	URL           string `gorm:"type:text;not null"`
	ProfessorName string `gorm:"type:varchar(255);not null"`
	CreatedBy     string `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SignatureModel) TableName() string {
	return "signatures"
}

// TemplateModel is the persistence model for templates.
type TemplateModel struct {
	ID        int                   `gorm:"primaryKey;autoIncrement"`
	Name      string                `gorm:"type:varchar(255);not null"`
	URL       string                `gorm:"type:text;not null"`
	Status    domain.TemplateStatus `gorm:"type:varchar(20);not null"`
	CreatedBy string                `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TemplateModel) TableName() string {
	return "templates"
}

// ConfigurationModel is the persistence model for configuration_diploma.
type ConfigurationModel struct {
	ID            int            `gorm:"primaryKey;autoIncrement"`
	FieldMappings datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedBy     string         `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ConfigurationModel) TableName() string {
	return "configuration_diploma"
}

// UserModel is the persistence model for users.
type UserModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Email           string `gorm:"type:varchar(255);uniqueIndex"`
	FirstName       string `gorm:"type:varchar(255)"`
	LastName        string `gorm:"type:varchar(255)"`
	ProfileImageURL string `gorm:"type:text"`
	Role            string `gorm:"type:varchar(50);not null;default:student"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func batchModelFromDomain(b *domain.DiplomaBatch) *BatchModel {
	if b == nil {
		return nil
	}

	return &BatchModel{
		ID:           b.ID,
		FileName:     b.FileName,
		Status:       b.Status,
		TotalRecords: b.TotalRecords,
		CSVURL:       b.CSVURL,
		ZipURL:       b.ZipURL,
		CreatedBy:    b.CreatedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func batchModelToDomain(m *BatchModel) *domain.DiplomaBatch {
	if m == nil {
		return nil
	}

	return &domain.DiplomaBatch{
		ID:           m.ID,
		FileName:     m.FileName,
		Status:       m.Status,
		TotalRecords: m.TotalRecords,
		CSVURL:       m.CSVURL,
		ZipURL:       m.ZipURL,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func signatureModelFromDomain(s *domain.Signature) *SignatureModel {
	if s == nil {
		return nil
	}

	return &SignatureModel{
		ID:            s.ID,
		Name:          s.Name,
		URL:           s.URL,
		ProfessorName: s.ProfessorName,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func signatureModelToDomain(m *SignatureModel) *domain.Signature {
	if m == nil {
		return nil
	}

	return &domain.Signature{
		ID:            m.ID,
		Name:          m.Name,
		URL:           m.URL,
		ProfessorName: m.ProfessorName,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func templateModelFromDomain(t *domain.Template) *TemplateModel {
	if t == nil {
		return nil
	}

	return &TemplateModel{
		ID:        t.ID,
		Name:      t.Name,
		URL:       t.URL,
		Status:    t.Status,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func templateModelToDomain(m *TemplateModel) *domain.Template {
	if m == nil {
		return nil
	}

	return &domain.Template{
		ID:        m.ID,
		Name:      m.Name,
		URL:       m.URL,
		Status:    m.Status,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func configurationModelFromDomain(c *domain.Configuration) (*ConfigurationModel, error) {
	if c == nil {
		return nil, nil
	}

	mappings := c.FieldMappings
	if mappings == nil {
		mappings = map[string]any{}
	}
	raw, err := json.Marshal(mappings)
	if err != nil {
		return nil, err
	}

	return &ConfigurationModel{
		ID:            c.ID,
		FieldMappings: datatypes.JSON(raw),
		UpdatedBy:     c.UpdatedBy,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}

func configurationModelToDomain(m *ConfigurationModel) (*domain.Configuration, error) {
	if m == nil {
		return nil, nil
	}

	mappings := map[string]any{}
	if len(m.FieldMappings) > 0 {
		if err := json.Unmarshal(m.FieldMappings, &mappings); err != nil {
			return nil, err
		}
	}

	return &domain.Configuration{
		ID:            m.ID,
		FieldMappings: mappings,
		UpdatedBy:     m.UpdatedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func userModelFromDomain(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}

	return &UserModel{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:              m.ID,
		Email:           m.Email,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		ProfileImageURL: m.ProfileImageURL,
		Role:            m.Role,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
