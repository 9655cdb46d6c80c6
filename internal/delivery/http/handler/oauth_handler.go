package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/infrastructure/oauth"
	"voicehub/internal/usecase"
)

// OAuthHandler serves the portal's integration surface. The portal's auth
// layer (external) resolves the signed-in client; handlers receive it as the
// X-Client-ID header set by the auth proxy.
type OAuthHandler struct {
	usecase usecase.OAuthUsecase
	logger  *zap.Logger
}

func NewOAuthHandler(usecase usecase.OAuthUsecase, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		usecase: usecase,
		logger:  logger,
	}
}

func clientIDFrom(c *fiber.Ctx) string {
	if id := c.Get("X-Client-ID"); id != "" {
		return id
	}
	return c.Query("client_id")
}

// ListConnections godoc
// @Summary List integration connections for a client
// @Tags integrations
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Router /api/v1/integrations [get]
func (h *OAuthHandler) ListConnections(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	statuses, err := h.usecase.ListConnections(ctx, clientID)
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(statuses, "Connections listed"))
}

// Connect godoc
// @Summary Start an OAuth flow for a provider
// @Description Redirects the browser to the provider's authorization page.
// @Tags integrations
// @Param provider path string true "Provider name"
// @Param redirect query string false "Portal path to return to"
// @Success 302 "Redirect to provider"
// @Failure 400 {object} entity.APIResponse
// @Router /api/v1/integrations/{provider}/connect [get]
func (h *OAuthHandler) Connect(c *fiber.Ctx) error {
	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	authURL, err := h.usecase.StartFlow(clientID, c.Params("provider"), c.Query("redirect"))
	if err != nil {
		h.logger.Error("Failed to start OAuth flow",
			zap.String("provider", c.Params("provider")),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", err.Error()),
		)
	}

	return c.Redirect(authURL, fiber.StatusFound)
}

// Callback godoc
// @Summary OAuth callback endpoint
// @Description Provider redirects here after the user authorizes. Validates
//
//	the state token, exchanges the code and stores the connection.
//
// @Tags integrations
// @Param code query string true "Authorization code"
// @Param state query string true "Encrypted state token"
// @Success 302 "Redirect back to the portal"
// @Failure 400 {object} entity.APIResponse
// @Router /redirect/oauth [get]
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Missing code or state"),
		)
	}

	redirectPath, err := h.usecase.HandleCallback(ctx, state, code)
	if err != nil {
		h.logger.Error("OAuth callback failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("OAUTH_FAILED", err.Error()),
		)
	}

	return c.Redirect(redirectPath, fiber.StatusFound)
}

// Disconnect godoc
// @Summary Disconnect a provider
// @Description Best-effort remote revocation, then local deletion.
// @Tags integrations
// @Param provider path string true "Provider name"
// @Success 200 {object} entity.APIResponse
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/integrations/{provider} [delete]
func (h *OAuthHandler) Disconnect(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := clientIDFrom(c)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Client id is required"),
		)
	}

	if err := h.usecase.Disconnect(ctx, clientID, c.Params("provider")); err != nil {
		if errors.Is(err, oauth.ErrNotConnected) {
			return c.Status(fiber.StatusNotFound).JSON(
				entity.NewErrorResponse("NOT_FOUND", "Provider is not connected"),
			)
		}
		h.logger.Error("Failed to disconnect provider",
			zap.String("provider", c.Params("provider")),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Provider disconnected"))
}
