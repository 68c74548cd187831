package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SecretReloader re-reads the worker API key from the parameter store.
type SecretReloader interface {
	Reload(ctx context.Context) error
	Loaded() bool
}

// InternalHandler serves the worker-facing surface: the read endpoints the
// generation worker needs before rendering, and the progress callback.
type InternalHandler struct {
	batches    BatchService
	signatures SignatureService
	templates  TemplateService
	configs    ConfigurationService
	secrets    SecretReloader
	logger     *zap.Logger
}

func NewInternalHandler(
	batches BatchService,
	signatures SignatureService,
	templates TemplateService,
	configs ConfigurationService,
	secrets SecretReloader,
	logger *zap.Logger,
) (*InternalHandler, error) {
	if batches == nil || signatures == nil || templates == nil || configs == nil {
		return nil, fmt.Errorf("all worker-facing services are required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("secret reloader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternalHandler{
		batches:    batches,
		signatures: signatures,
		templates:  templates,
		configs:    configs,
		secrets:    secrets,
		logger:     logger,
	}, nil
}

// RegisterInternalRoutes mounts the worker surface. Every endpoint, the key
// reload included, sits behind the shared-secret middleware; a load that
// fails at startup is repaired with a restart or an out-of-band rotation.
func RegisterInternalRoutes(
	router fiber.Router,
	h *InternalHandler,
	internalAuth fiber.Handler,
) error {
	if h == nil {
		return fmt.Errorf("internal handler is required")
	}
	if internalAuth == nil {
		return fmt.Errorf("internal auth middleware is required")
	}

	internal := router.Group("/internal", internalAuth)
	internal.Post("/reload-api-key", h.ReloadAPIKey)
	internal.Get("/configuration", h.GetConfiguration)
	internal.Get("/signatures", h.ListSignatures)
	internal.Get("/templates/active", h.GetActiveTemplate)
	internal.Patch("/diploma-batches/:id", h.UpdateBatch)

	return nil
}

func (h *InternalHandler) GetConfiguration(c *fiber.Ctx) error {
	cfg, err := h.configs.Get(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"fieldMappings": cfg.FieldMappings})
}

func (h *InternalHandler) ListSignatures(c *fiber.Ctx) error {
	signatures, err := h.signatures.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"signatures": toSignatureResponses(signatures)})
}

func (h *InternalHandler) GetActiveTemplate(c *fiber.Ctx) error {
	tpl, err := h.templates.GetActive(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"template": toTemplateResponse(tpl)})
}

// UpdateBatch is the worker progress callback. Status values arrive in either
// the canonical or the legacy Spanish vocabulary.
func (h *InternalHandler) UpdateBatch(c *fiber.Ctx) error {
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

	batch, err := h.batches.ApplyWorkerUpdate(c.Context(), id, patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toBatchResponse(batch))
}

// ReloadAPIKey re-reads the shared secret from the parameter store. It never
// returns the key; the response only says whether a key is now loaded.
func (h *InternalHandler) ReloadAPIKey(c *fiber.Ctx) error {
	err := h.secrets.Reload(c.Context())
	if err != nil {
		h.logger.Error("api key reload failed", zap.Error(err))
	}

	success := err == nil
	status := fiber.StatusOK
	if !success {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": success,
		"loaded":  h.secrets.Loaded(),
	})
}
