package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/service"
)

type SignatureService interface {
	Create(ctx context.Context, createdBy string, in service.SignatureInput) (*domain.Signature, error)
	List(ctx context.Context) ([]domain.Signature, error)
	Get(ctx context.Context, id int) (*domain.Signature, error)
	Update(ctx context.Context, id int, in service.SignatureInput) (*domain.Signature, error)
	Delete(ctx context.Context, id int) error
}

type TemplateService interface {
	Create(ctx context.Context, createdBy string, in service.TemplateInput) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Get(ctx context.Context, id int) (*domain.Template, error)
	GetActive(ctx context.Context) (*domain.Template, error)
	PresignDownload(ctx context.Context, id int, ttl time.Duration) (string, error)
	SetActive(ctx context.Context, id int) (*domain.Template, error)
	Replace(ctx context.Context, id int, in service.TemplateInput) (*domain.Template, error)
	Delete(ctx context.Context, id int) error
}

// presignDownloadTTL is the requested lifetime for preview links; the storage
// gateway clamps it to its own bounds.
const presignDownloadTTL = 10 * time.Minute

type AssetHandler struct {
	signatures     SignatureService
	templates      TemplateService
	maxUploadBytes int64
}

func NewAssetHandler(signatures SignatureService, templates TemplateService, maxUploadBytes int64) (*AssetHandler, error) {
	if signatures == nil || templates == nil {
		return nil, fmt.Errorf("signature and template services are required")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &AssetHandler{signatures: signatures, templates: templates, maxUploadBytes: maxUploadBytes}, nil
}

func RegisterAssetRoutes(router fiber.Router, signatures SignatureService, templates TemplateService, maxUploadBytes int64, uploadLimit fiber.Handler) error {
	h, err := NewAssetHandler(signatures, templates, maxUploadBytes)
	if err != nil {
		return err
	}

	limited := func(handler fiber.Handler) []fiber.Handler {
		if uploadLimit == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{uploadLimit, handler}
	}

	router.Get("/signatures", h.ListSignatures)
	router.Get("/signatures/:id", h.GetSignature)
	router.Post("/signatures", limited(h.CreateSignature)...)
	router.Put("/signatures/:id", limited(h.UpdateSignature)...)
	router.Delete("/signatures/:id", h.DeleteSignature)

	router.Get("/templates", h.ListTemplates)
	router.Get("/templates/active", h.GetActiveTemplate)
	router.Get("/templates/:id", h.GetTemplate)
	router.Get("/templates/:id/presign", h.PresignTemplate)
	router.Post("/templates", limited(h.CreateTemplate)...)
	router.Put("/templates/:id", limited(h.ReplaceTemplate)...)
	router.Post("/templates/:id/activate", h.ActivateTemplate)
	router.Delete("/templates/:id", h.DeleteTemplate)

	return nil
}

type signatureResponse struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	ProfessorName string    `json:"professorName"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type templateResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSignatureResponse(s *domain.Signature) signatureResponse {
	return signatureResponse{
		ID:            s.ID,
		Name:          s.Name,
		URL:           s.URL,
		ProfessorName: s.ProfessorName,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toSignatureResponses(signatures []domain.Signature) []signatureResponse {
	out := make([]signatureResponse, 0, len(signatures))
	for i := range signatures {
		out = append(out, toSignatureResponse(&signatures[i]))
	}
	return out
}

func toTemplateResponse(t *domain.Template) templateResponse {
	return templateResponse{
		ID:        t.ID,
		Name:      t.Name,
		URL:       t.URL,
		Status:    t.Status.String(),
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTemplateResponses(templates []domain.Template) []templateResponse {
	out := make([]templateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, toTemplateResponse(&templates[i]))
	}
	return out
}

// readUpload pulls an optional multipart file into memory, enforcing the
// upload size limit. A missing file returns an empty payload, not an error;
// metadata-only updates are legal.
func (h *AssetHandler) readUpload(c *fiber.Ctx, field string) (fileName, contentType string, data []byte, err error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", "", nil, nil
	}
	if fileHeader.Size > h.maxUploadBytes {
		return "", "", nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "uploaded file is too large")
	}

	data, err = readMultipartFile(fileHeader, h.maxUploadBytes)
	if err != nil {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	return fileHeader.Filename, fileHeader.Header.Get(fiber.HeaderContentType), data, nil
}

func readMultipartFile(fileHeader *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, limit+1))
}

func (h *AssetHandler) ListSignatures(c *fiber.Ctx) error {
	signatures, err := h.signatures.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toSignatureResponses(signatures))
}

func (h *AssetHandler) GetSignature(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "signature id must be numeric")
	}

	sig, err := h.signatures.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toSignatureResponse(sig))
}

func (h *AssetHandler) CreateSignature(c *fiber.Ctx) error {
	fileName, contentType, data, err := h.readUpload(c, "file")
	if err != nil {
		return err
	}

	sig, err := h.signatures.Create(c.Context(), submitterIdentity(c), service.SignatureInput{
		Name:          c.FormValue("name"),
		ProfessorName: c.FormValue("professorName"),
		FileName:      fileName,
		ContentType:   contentType,
		Image:         data,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSignatureResponse(sig))
}

func (h *AssetHandler) UpdateSignature(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "signature id must be numeric")
	}

	fileName, contentType, data, err := h.readUpload(c, "file")
	if err != nil {
		return err
	}

	sig, err := h.signatures.Update(c.Context(), id, service.SignatureInput{
		Name:          c.FormValue("name"),
		ProfessorName: c.FormValue("professorName"),
		FileName:      fileName,
		ContentType:   contentType,
		Image:         data,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toSignatureResponse(sig))
}

func (h *AssetHandler) DeleteSignature(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "signature id must be numeric")
	}

	if err := h.signatures.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AssetHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.templates.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toTemplateResponses(templates))
}

func (h *AssetHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "template id must be numeric")
	}

	tpl, err := h.templates.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toTemplateResponse(tpl))
}

func (h *AssetHandler) GetActiveTemplate(c *fiber.Ctx) error {
	tpl, err := h.templates.GetActive(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toTemplateResponse(tpl))
}

func (h *AssetHandler) CreateTemplate(c *fiber.Ctx) error {
	fileName, contentType, data, err := h.readUpload(c, "file")
	if err != nil {
		return err
	}

	tpl, err := h.templates.Create(c.Context(), submitterIdentity(c), service.TemplateInput{
		Name:        c.FormValue("name"),
		FileName:    fileName,
		ContentType: contentType,
		PDF:         data,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTemplateResponse(tpl))
}

func (h *AssetHandler) ReplaceTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "template id must be numeric")
	}

	fileName, contentType, data, err := h.readUpload(c, "file")
	if err != nil {
		return err
	}

	tpl, err := h.templates.Replace(c.Context(), id, service.TemplateInput{
		Name:        c.FormValue("name"),
		FileName:    fileName,
		ContentType: contentType,
		PDF:         data,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toTemplateResponse(tpl))
}

// PresignTemplate hands the admin UI a short-lived download URL for preview.
func (h *AssetHandler) PresignTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "template id must be numeric")
	}

	url, err := h.templates.PresignDownload(c.Context(), id, presignDownloadTTL)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *AssetHandler) ActivateTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "template id must be numeric")
	}

	tpl, err := h.templates.SetActive(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toTemplateResponse(tpl))
}

func (h *AssetHandler) DeleteTemplate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "template id must be numeric")
	}

	if err := h.templates.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
