package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
)

type ConfigurationService interface {
	Get(ctx context.Context) (*domain.Configuration, error)
	Put(ctx context.Context, updatedBy string, mappings map[string]any) (*domain.Configuration, error)
}

type ConfigurationHandler struct {
	service ConfigurationService
}

func NewConfigurationHandler(service ConfigurationService) (*ConfigurationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("configuration service is required")
	}
	return &ConfigurationHandler{service: service}, nil
}

func RegisterConfigurationRoutes(router fiber.Router, service ConfigurationService) error {
	h, err := NewConfigurationHandler(service)
	if err != nil {
		return err
	}

	router.Get("/configuration", h.GetConfiguration)
	router.Put("/configuration", h.PutConfiguration)

	return nil
}

type configurationResponse struct {
	FieldMappings map[string]any `json:"fieldMappings"`
	UpdatedBy     string         `json:"updatedBy,omitempty"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

type putConfigurationRequest struct {
	FieldMappings map[string]any `json:"fieldMappings"`
}

func toConfigurationResponse(cfg *domain.Configuration) configurationResponse {
	resp := configurationResponse{
		FieldMappings: cfg.FieldMappings,
		UpdatedBy:     cfg.UpdatedBy,
	}
	if !cfg.UpdatedAt.IsZero() {
		updatedAt := cfg.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func (h *ConfigurationHandler) GetConfiguration(c *fiber.Ctx) error {
	cfg, err := h.service.Get(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toConfigurationResponse(cfg))
}

func (h *ConfigurationHandler) PutConfiguration(c *fiber.Ctx) error {
	var req putConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cfg, err := h.service.Put(c.Context(), submitterIdentity(c), req.FieldMappings)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(toConfigurationResponse(cfg))
}
