package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/middleware"
)

type BatchService interface {
	Submit(ctx context.Context, createdBy, fileName string, csvData []byte) (*domain.DiplomaBatch, error)
	List(ctx context.Context) ([]domain.DiplomaBatch, error)
	Get(ctx context.Context, id int) (*domain.DiplomaBatch, error)
	ListStuck(ctx context.Context) ([]domain.DiplomaBatch, error)
	Update(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error)
	ApplyWorkerUpdate(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error)
}

type BatchHandler struct {
	service        BatchService
	maxUploadBytes int64
}

func NewBatchHandler(service BatchService, maxUploadBytes int64) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &BatchHandler{service: service, maxUploadBytes: maxUploadBytes}, nil
}

// RegisterBatchRoutes mounts the admin-panel batch surface. The router is
// expected to already carry session auth; uploadLimit throttles submissions.
func RegisterBatchRoutes(router fiber.Router, service BatchService, maxUploadBytes int64, uploadLimit fiber.Handler) error {
	h, err := NewBatchHandler(service, maxUploadBytes)
	if err != nil {
		return err
	}

	router.Get("/diploma-batches", h.ListBatches)
	router.Get("/diploma-batches/stuck", h.ListStuckBatches)
	router.Get("/diploma-batches/:id", h.GetBatch)
	if uploadLimit != nil {
		router.Post("/diploma-batches", uploadLimit, h.SubmitBatch)
	} else {
		router.Post("/diploma-batches", h.SubmitBatch)
	}
	router.Patch("/diploma-batches/:id", h.UpdateBatch)

	return nil
}

type batchResponse struct {
	ID           int       `json:"id"`
	FileName     string    `json:"fileName"`
	Status       string    `json:"status"`
	TotalRecords int       `json:"totalRecords"`
	CSVURL       *string   `json:"csvUrl,omitempty"`
	ZipURL       *string   `json:"zipUrl,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// batchPatchRequest keeps the URL fields raw so an explicit JSON null, which
// clears the column, can be told apart from an absent key.
type batchPatchRequest struct {
	Status       *string         `json:"status"`
	ZipURL       json.RawMessage `json:"zipUrl"`
	CSVURL       json.RawMessage `json:"csvUrl"`
	FileName     *string         `json:"fileName"`
	TotalRecords *int            `json:"totalRecords"`
}

func toBatchResponse(b *domain.DiplomaBatch) batchResponse {
	return batchResponse{
		ID:           b.ID,
		FileName:     b.FileName,
		Status:       b.Status.String(),
		TotalRecords: b.TotalRecords,
		CSVURL:       b.CSVURL,
		ZipURL:       b.ZipURL,
		CreatedBy:    b.CreatedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBatchResponses(batches []domain.DiplomaBatch) []batchResponse {
	out := make([]batchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, toBatchResponse(&batches[i]))
	}
	return out
}

// requestToBatchPatch converts the wire patch into the allow-listed domain
// patch. Unknown JSON fields are dropped by decoding, which is the point:
// callers cannot touch columns outside the allow-list.
func requestToBatchPatch(req batchPatchRequest) (domain.BatchPatch, error) {
	patch := domain.BatchPatch{
		FileName:     req.FileName,
		TotalRecords: req.TotalRecords,
	}

	var err error
	if patch.ZipURL, patch.ClearZipURL, err = rawURLField(req.ZipURL, "zipUrl"); err != nil {
		return domain.BatchPatch{}, err
	}
	if patch.CSVURL, patch.ClearCSVURL, err = rawURLField(req.CSVURL, "csvUrl"); err != nil {
		return domain.BatchPatch{}, err
	}

	if req.Status != nil {
		status, err := domain.ParseBatchStatus(*req.Status)
		if err != nil {
			return domain.BatchPatch{}, err
		}
		patch.Status = &status
	}
	return patch, nil
}

// rawURLField decodes an allow-listed URL value: absent leaves the column
// alone, an explicit null clears it, a string replaces it.
func rawURLField(raw json.RawMessage, name string) (*string, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("%w: %s must be a string or null", domain.ErrValidation, name)
	}
	if value == nil {
		return nil, true, nil
	}
	return value, false, nil
}

func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	batches, err := h.service.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toBatchResponses(batches))
}

func (h *BatchHandler) ListStuckBatches(c *fiber.Ctx) error {
	batches, err := h.service.ListStuck(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toBatchResponses(batches))
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "batch id must be numeric")
	}

	batch, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toBatchResponse(batch))
}

func (h *BatchHandler) SubmitBatch(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "roster file is required")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "roster file is too large")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		return fiber.NewError(fiber.StatusBadRequest, "roster must be a CSV file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not open uploaded file")
	}
	defer file.Close()

	csvData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	if int64(len(csvData)) > h.maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "roster file is too large")
	}

	createdBy := submitterIdentity(c)
	if createdBy == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing submitter identity")
	}

	batch, err := h.service.Submit(c.Context(), createdBy, fileHeader.Filename, csvData)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "batch id must be numeric")
	}

	var req batchPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	patch, err := requestToBatchPatch(req)
	if err != nil {
		return toHTTPError(err)
	}

	batch, err := h.service.Update(c.Context(), id, patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toBatchResponse(batch))
}

func submitterIdentity(c *fiber.Ctx) string {
	if user, ok := middleware.CurrentUser(c); ok {
		if email := strings.TrimSpace(user.Email); email != "" {
			return email
		}
		return user.ID
	}
	return strings.TrimSpace(c.FormValue("createdBy"))
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrSecretUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrQueueUnavailable):
		// Misconfigured or unreachable infrastructure is a server fault, not
		// the temporary not-ready state 503 signals.
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return err
	}
}
