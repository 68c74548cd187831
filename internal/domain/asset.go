package domain

import (
	"fmt"
	"strings"
	"time"
)

// TemplateStatus toggles which layout template the worker renders against.
// At most one template is active at a time.
type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "active"
	TemplateStatusInactive TemplateStatus = "inactive"
)

func (s TemplateStatus) String() string { return string(s) }

func (s TemplateStatus) IsValid() bool {
	return s == TemplateStatusActive || s == TemplateStatusInactive
}

// Template is an uploaded diploma layout PDF.
type Template struct {
	ID        int
	Name      string
	URL       string
	Status    TemplateStatus
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid template status %q", ErrValidation, t.Status)
	}
	return nil
}

// Signature is an uploaded professor signature image.
type Signature struct {
	ID            int
	Name          string
	URL           string
	ProfessorName string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Signature) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(s.ProfessorName) == "" {
		return fmt.Errorf("%w: professorName is required", ErrValidation)
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	return nil
}
