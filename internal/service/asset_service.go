package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/objectstore"
	"github.com/pohualizcalli/academy-admin/internal/repository"
	"go.uber.org/zap"
)

// SignatureService manages professor signature images: the database row and
// the backing object move together, with the object uploaded first so a row
// never points at nothing.
type SignatureService struct {
	signatures repository.SignatureRepository
	store      objectStore
	logger     *zap.Logger
}

func NewSignatureService(signatures repository.SignatureRepository, store objectStore, logger *zap.Logger) *SignatureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignatureService{signatures: signatures, store: store, logger: logger}
}

type SignatureInput struct {
	Name          string
	ProfessorName string
	FileName      string
	ContentType   string
	Image         []byte
}

func (in SignatureInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.ProfessorName) == "" {
		return fmt.Errorf("%w: professorName is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.FileName) == "" || len(in.Image) == 0 {
		return fmt.Errorf("%w: signature image file is required", domain.ErrValidation)
	}
	return nil
}

func (s *SignatureService) Create(ctx context.Context, createdBy string, in SignatureInput) (*domain.Signature, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	key := objectstore.SignatureKey(in.FileName, s.store.Now())
	url, err := s.store.Upload(ctx, in.Image, in.ContentType, key)
	if err != nil {
		return nil, err
	}

	sig := &domain.Signature{
		Name:          in.Name,
		ProfessorName: in.ProfessorName,
		URL:           url,
		CreatedBy:     createdBy,
	}
	if err := s.signatures.Create(ctx, sig); err != nil {
		// The row failed, so the object is an orphan. Clean it up.
		s.store.DeleteByRef(ctx, url)
		return nil, fmt.Errorf("failed to create signature: %w", err)
	}
	return sig, nil
}

func (s *SignatureService) List(ctx context.Context) ([]domain.Signature, error) {
	return s.signatures.List(ctx)
}

func (s *SignatureService) Get(ctx context.Context, id int) (*domain.Signature, error) {
	return s.signatures.GetByID(ctx, id)
}

// Update patches a signature's metadata and, when a new image comes with the
// request, replaces the stored object. The old object is removed only after
// the row points at the new one.
func (s *SignatureService) Update(ctx context.Context, id int, in SignatureInput) (*domain.Signature, error) {
	current, err := s.signatures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if strings.TrimSpace(in.Name) != "" {
		updates["name"] = in.Name
	}
	if strings.TrimSpace(in.ProfessorName) != "" {
		updates["professor_name"] = in.ProfessorName
	}

	var oldURL string
	if len(in.Image) > 0 {
		if strings.TrimSpace(in.FileName) == "" {
			return nil, fmt.Errorf("%w: fileName is required with an image", domain.ErrValidation)
		}
		key := objectstore.SignatureKey(in.FileName, s.store.Now())
		url, err := s.store.Upload(ctx, in.Image, in.ContentType, key)
		if err != nil {
			return nil, err
		}
		updates["url"] = url
		oldURL = current.URL
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	updated, err := s.signatures.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if oldURL != "" && oldURL != updated.URL {
		s.store.DeleteByRef(ctx, oldURL)
	}
	return updated, nil
}

func (s *SignatureService) Delete(ctx context.Context, id int) error {
	current, err := s.signatures.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.signatures.Delete(ctx, id); err != nil {
		return err
	}
	s.store.DeleteByRef(ctx, current.URL)
	return nil
}

// TemplateService manages diploma layout templates. Templates are PDFs; at
// most one is active, and the active one is what the worker renders against.
type TemplateService struct {
	templates repository.TemplateRepository
	store     objectStore
	logger    *zap.Logger
}

func NewTemplateService(templates repository.TemplateRepository, store objectStore, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{templates: templates, store: store, logger: logger}
}

type TemplateInput struct {
	Name        string
	FileName    string
	ContentType string
	PDF         []byte
}

func (in TemplateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.FileName) == "" || len(in.PDF) == 0 {
		return fmt.Errorf("%w: template file is required", domain.ErrValidation)
	}
	if !isPDF(in.FileName, in.ContentType) {
		return fmt.Errorf("%w: template must be a PDF", domain.ErrValidation)
	}
	return nil
}

func isPDF(fileName, contentType string) bool {
	if strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(fileName)), ".pdf")
}

func (s *TemplateService) Create(ctx context.Context, createdBy string, in TemplateInput) (*domain.Template, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	key := objectstore.TemplateKey(in.FileName, s.store.Now())
	url, err := s.store.Upload(ctx, in.PDF, "application/pdf", key)
	if err != nil {
		return nil, err
	}

	tpl := &domain.Template{
		Name:      in.Name,
		URL:       url,
		Status:    domain.TemplateStatusInactive,
		CreatedBy: createdBy,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		s.store.DeleteByRef(ctx, url)
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return tpl, nil
}

func (s *TemplateService) List(ctx context.Context) ([]domain.Template, error) {
	return s.templates.List(ctx)
}

func (s *TemplateService) Get(ctx context.Context, id int) (*domain.Template, error) {
	return s.templates.GetByID(ctx, id)
}

// GetActive returns the template the worker should render against, or
// ErrNotFound when none has been activated yet.
func (s *TemplateService) GetActive(ctx context.Context) (*domain.Template, error) {
	return s.templates.GetActive(ctx)
}

// PresignDownload returns a short-lived signed URL for a template's PDF, for
// admin preview and download without making the object public. The gateway
// clamps the TTL.
func (s *TemplateService) PresignDownload(ctx context.Context, id int, ttl time.Duration) (string, error) {
	current, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.Presign(ctx, current.URL, ttl)
}

func (s *TemplateService) SetActive(ctx context.Context, id int) (*domain.Template, error) {
	if err := s.templates.SetActive(ctx, id); err != nil {
		return nil, err
	}
	return s.templates.GetByID(ctx, id)
}

// Replace uploads a new PDF for an existing template and clears out the old
// upload folder. Template uploads get their own time-keyed folder, so prefix
// deletion cannot touch another template's objects.
func (s *TemplateService) Replace(ctx context.Context, id int, in TemplateInput) (*domain.Template, error) {
	if strings.TrimSpace(in.FileName) == "" || len(in.PDF) == 0 {
		return nil, fmt.Errorf("%w: template file is required", domain.ErrValidation)
	}
	if !isPDF(in.FileName, in.ContentType) {
		return nil, fmt.Errorf("%w: template must be a PDF", domain.ErrValidation)
	}

	current, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := objectstore.TemplateKey(in.FileName, s.store.Now())
	url, err := s.store.Upload(ctx, in.PDF, "application/pdf", key)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"url": url}
	if strings.TrimSpace(in.Name) != "" {
		updates["name"] = in.Name
	}
	updated, err := s.templates.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	if prefix := objectstore.ParentPrefixFromRef(current.URL); prefix != "" {
		s.store.DeleteByPrefix(ctx, prefix)
	}
	return updated, nil
}

func (s *TemplateService) Delete(ctx context.Context, id int) error {
	current, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == domain.TemplateStatusActive {
		return fmt.Errorf("%w: cannot delete the active template", domain.ErrConflict)
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	s.store.DeleteByRef(ctx, current.URL)
	return nil
}
