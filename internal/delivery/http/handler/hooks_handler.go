package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/delivery/http/middleware"
	"voicehub/internal/domain/entity"
	"voicehub/internal/usecase"
)

// HooksHandler serves the REST-hook surface used by Zapier, Make and n8n.
// Callers authenticate with a per-client API key; the middleware resolves
// the client id into request locals.
type HooksHandler struct {
	usecase usecase.HooksUsecase
	logger  *zap.Logger
}

func NewHooksHandler(usecase usecase.HooksUsecase, logger *zap.Logger) *HooksHandler {
	return &HooksHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Subscribe godoc
// @Summary Register a webhook subscription
// @Description Called by an automation platform when the user enables a
//
//	trigger. Idempotent per (client, hookUrl, event).
//
// @Tags hooks
// @Accept json
// @Produce json
// @Param platform path string true "zapier, make or n8n"
// @Success 201 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /hooks/{platform}/subscribe [post]
func (h *HooksHandler) Subscribe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	clientID := middleware.HookClientID(c)

	var req entity.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	sub, err := h.usecase.Subscribe(ctx, c.Params("platform"), clientID, &req)
	if err != nil {
		h.logger.Warn("Subscribe failed",
			zap.String("platform", c.Params("platform")),
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", err.Error()),
		)
	}

	return c.Status(fiber.StatusCreated).JSON(entity.NewSuccessResponse(sub, "Subscription created"))
}

// Unsubscribe godoc
// @Summary Remove a webhook subscription
// @Tags hooks
// @Produce json
// @Param platform path string true "zapier, make or n8n"
// @Param id path string true "Subscription id"
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /hooks/{platform}/{id} [delete]
func (h *HooksHandler) Unsubscribe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	clientID := middleware.HookClientID(c)

	if err := h.usecase.Unsubscribe(ctx, c.Params("platform"), clientID, c.Params("id")); err != nil {
		h.logger.Warn("Unsubscribe failed",
			zap.String("platform", c.Params("platform")),
			zap.String("subscription_id", c.Params("id")),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Subscription removed"))
}
