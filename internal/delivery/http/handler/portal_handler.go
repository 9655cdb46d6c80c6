package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/usecase"
)

// PortalHandler serves the portal's settings and automation surface plus the
// call and delivery history views.
type PortalHandler struct {
	promptUsecase  usecase.PromptUsecase
	automationRepo repository.AutomationRepository
	callRepo       repository.CallRepository
	deliveryRepo   repository.DeliveryLogRepository
	logger         *zap.Logger
}

func NewPortalHandler(
	promptUsecase usecase.PromptUsecase,
	automationRepo repository.AutomationRepository,
	callRepo repository.CallRepository,
	deliveryRepo repository.DeliveryLogRepository,
	logger *zap.Logger,
) *PortalHandler {
	return &PortalHandler{
		promptUsecase:  promptUsecase,
		automationRepo: automationRepo,
		callRepo:       callRepo,
		deliveryRepo:   deliveryRepo,
		logger:         logger,
	}
}

// SaveSettings godoc
// @Summary Save business settings
// @Description Persists the settings and regenerates the agent's system
//
//	prompt in the background.
//
// @Tags portal
// @Accept json
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /api/v1/clients/{id}/settings [put]
func (h *PortalHandler) SaveSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := c.Params("id")
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	var settings entity.BusinessSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}
	settings.ClientID = clientID

	if err := h.promptUsecase.SaveSettings(ctx, &settings); err != nil {
		h.logger.Error("Failed to save settings", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Settings saved"))
}

// RegeneratePrompt godoc
// @Summary Regenerate the agent's system prompt now
// @Tags portal
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/clients/{id}/regenerate-prompt [post]
func (h *PortalHandler) RegeneratePrompt(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := c.Params("id")
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	prompt, err := h.promptUsecase.Regenerate(ctx, clientID)
	if err != nil {
		h.logger.Error("Prompt regeneration failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(fiber.Map{"prompt": prompt}, "Prompt regenerated"))
}

type automationRequest struct {
	Recipe   string `json:"recipe"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
	Config   string `json:"config"`
}

// SaveAutomation godoc
// @Summary Create or update a native automation recipe
// @Tags portal
// @Accept json
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /api/v1/automations [put]
func (h *PortalHandler) SaveAutomation(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	var req automationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}
	if req.Recipe == "" || req.Provider == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Recipe and provider are required"),
		)
	}

	automation := &entity.ClientAutomation{
		ClientID: clientID,
		Recipe:   req.Recipe,
		Provider: req.Provider,
		Enabled:  req.Enabled,
		Config:   req.Config,
	}
	if automation.Config == "" {
		automation.Config = "{}"
	}

	if err := h.automationRepo.Upsert(ctx, automation); err != nil {
		h.logger.Error("Failed to save automation",
			zap.String("client_id", clientID),
			zap.String("recipe", req.Recipe),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(automation, "Automation saved"))
}

// ToggleAutomation godoc
// @Summary Enable or disable a recipe
// @Tags portal
// @Accept json
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/automations/{recipe}/toggle [post]
func (h *PortalHandler) ToggleAutomation(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	if err := h.automationRepo.SetEnabled(ctx, clientID, c.Params("recipe"), req.Enabled); err != nil {
		h.logger.Error("Failed to toggle automation",
			zap.String("client_id", clientID),
			zap.String("recipe", c.Params("recipe")),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Automation updated"))
}

// ListCalls godoc
// @Summary List recent calls for a client
// @Tags portal
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/calls [get]
func (h *PortalHandler) ListCalls(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	calls, err := h.callRepo.ListByClient(ctx, clientID, c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("Failed to list calls", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(calls, "Calls listed"))
}

// ListDeliveries godoc
// @Summary List recent webhook delivery attempts for a client
// @Tags portal
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/deliveries [get]
func (h *PortalHandler) ListDeliveries(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	logs, err := h.deliveryRepo.ListByClient(ctx, clientID, c.QueryInt("limit", 50))
	if err != nil {
		h.logger.Error("Failed to list deliveries", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(logs, "Deliveries listed"))
}
