package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/delivery/http/handler"
	"voicehub/internal/delivery/http/middleware"
	"voicehub/internal/infrastructure/redis"
	"voicehub/internal/usecase"
)

type Router struct {
	app            *fiber.App
	config         *config.Config
	redisClient    *redis.RedisClient
	hooksUsecase   usecase.HooksUsecase
	logger         *zap.Logger
	healthHandler  *handler.HealthHandler
	oauthHandler   *handler.OAuthHandler
	toolHandler    *handler.ToolHandler
	hooksHandler   *handler.HooksHandler
	webhookHandler *handler.WebhookHandler
	portalHandler  *handler.PortalHandler
}

func NewRouter(
	cfg *config.Config,
	redisClient *redis.RedisClient,
	hooksUsecase usecase.HooksUsecase,
	log *zap.Logger,
	healthHandler *handler.HealthHandler,
	oauthHandler *handler.OAuthHandler,
	toolHandler *handler.ToolHandler,
	hooksHandler *handler.HooksHandler,
	webhookHandler *handler.WebhookHandler,
	portalHandler *handler.PortalHandler,
) *Router {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: customErrorHandler,
	})

	return &Router{
		app:            app,
		config:         cfg,
		redisClient:    redisClient,
		hooksUsecase:   hooksUsecase,
		logger:         log,
		healthHandler:  healthHandler,
		oauthHandler:   oauthHandler,
		toolHandler:    toolHandler,
		hooksHandler:   hooksHandler,
		webhookHandler: webhookHandler,
		portalHandler:  portalHandler,
	}
}

func (r *Router) Setup() *fiber.App {
	// Middleware
	r.app.Use(recover.New())
	r.app.Use(requestid.New())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Api-Key,X-Client-ID",
	}))

	if r.config.IsDevelopment() {
		r.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// Health check route
	r.app.Get("/health", r.healthHandler.Health)

	// OAuth callback route (must be at root level for provider redirects)
	r.app.Get("/redirect/oauth", r.oauthHandler.Callback)

	// Post-call webhook from the conversational-AI provider, authenticated
	// with the same shared secret as the tool endpoints
	r.app.Post("/webhook/call-completed",
		middleware.ToolAuth(r.config, r.logger),
		r.webhookHandler.CallCompleted,
	)

	// Agent tool routes: shared-secret bearer auth plus per-client throttling
	tools := r.app.Group("/tools",
		middleware.ToolAuth(r.config, r.logger),
		middleware.ToolRateLimit(r.config, r.redisClient, r.logger),
	)
	{
		tools.Post("/availability", r.toolHandler.CheckAvailability)
		tools.Post("/book", r.toolHandler.CreateBooking)
		tools.Post("/leads", r.toolHandler.CreateLead)
		tools.Get("/leads", r.toolHandler.ListLeads)
		tools.Get("/leads/:id", r.toolHandler.GetLead)
		tools.Patch("/leads/:id", r.toolHandler.UpdateLead)
		tools.Post("/escalate", r.toolHandler.Escalate)
		tools.Post("/sms", r.toolHandler.SendSMS)
		tools.Post("/email", r.toolHandler.SendEmail)
	}

	// REST-hook routes for external automation platforms
	hooks := r.app.Group("/hooks", middleware.HookAuth(r.hooksUsecase, r.logger))
	{
		hooks.Post("/:platform/subscribe", r.hooksHandler.Subscribe)
		hooks.Delete("/:platform/:id", r.hooksHandler.Unsubscribe)
	}

	// API v1 routes (portal surface, behind the portal's auth proxy)
	api := r.app.Group("/api/v1")
	{
		integrations := api.Group("/integrations")
		{
			integrations.Get("", r.oauthHandler.ListConnections)
			integrations.Get("/:provider/connect", r.oauthHandler.Connect)
			integrations.Delete("/:provider", r.oauthHandler.Disconnect)
		}

		clients := api.Group("/clients/:id")
		{
			clients.Put("/settings", r.portalHandler.SaveSettings)
			clients.Post("/regenerate-prompt", r.portalHandler.RegeneratePrompt)
		}

		automations := api.Group("/automations")
		{
			automations.Put("", r.portalHandler.SaveAutomation)
			automations.Post("/:recipe/toggle", r.portalHandler.ToggleAutomation)
		}

		api.Get("/calls", r.portalHandler.ListCalls)
		api.Get("/deliveries", r.portalHandler.ListDeliveries)
	}

	return r.app
}

func (r *Router) GetApp() *fiber.App {
	return r.app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"error": fiber.Map{
			"code":    code,
			"message": err.Error(),
		},
	})
}
