package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/usecase"
)

// WebhookHandler receives post-call events from the conversational-AI
// provider. Acknowledgement is fast: the record is stored synchronously and
// fan-out to automation platforms runs in the background.
type WebhookHandler struct {
	usecase usecase.PostCallUsecase
	logger  *zap.Logger
}

func NewWebhookHandler(usecase usecase.PostCallUsecase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// CallCompleted godoc
// @Summary Receive a completed-call event
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /webhook/call-completed [post]
func (h *WebhookHandler) CallCompleted(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var payload entity.CallCompletedPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	if payload.CallID == "" || payload.ClientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "call_id and client_id are required"),
		)
	}

	if err := h.usecase.ProcessCallCompleted(ctx, &payload); err != nil {
		h.logger.Error("Call-completed processing failed",
			zap.String("call_id", payload.CallID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Call recorded"))
}
