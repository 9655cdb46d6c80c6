package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/usecase"
)

// ToolHandler serves the endpoints the voice agent invokes mid-call. The
// response body is part of the external contract: {"success": true, ...} on
// success, {"error": "..."} with the matching HTTP status (400 validation,
// 404 missing, 500 internal) on failure.
type ToolHandler struct {
	usecase usecase.ToolUsecase
	logger  *zap.Logger
}

func NewToolHandler(usecase usecase.ToolUsecase, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// toolClientID resolves the tenant for a tool call: body field first, then
// query parameter. The agent platform templates client_id into both.
func toolClientID(c *fiber.Ctx, bodyID string) string {
	if bodyID != "" {
		return bodyID
	}
	return c.Query("client_id")
}

type availabilityRequest struct {
	ClientID    string `json:"client_id"`
	Date        string `json:"date"`
	SlotMinutes int    `json:"slot_minutes"`
}

// CheckAvailability godoc
// @Summary List open booking slots for a date
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Failure 404 {object} entity.ToolResponse
// @Router /tools/availability [post]
func (h *ToolHandler) CheckAvailability(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req availabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("date must be YYYY-MM-DD"))
	}

	if req.SlotMinutes <= 0 {
		req.SlotMinutes = 30
	}

	slots, err := h.usecase.CheckAvailability(ctx, clientID, date, req.SlotMinutes)
	if err != nil {
		if errors.Is(err, usecase.ErrSettingsNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(entity.NewToolError("business settings not found"))
		}
		h.logger.Error("Availability check failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not check availability"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"date":  req.Date,
		"slots": slots,
	}))
}

type bookingRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Service  string `json:"service"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Notes    string `json:"notes"`
}

// CreateBooking godoc
// @Summary Book an appointment slot
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/book [post]
func (h *ToolHandler) CreateBooking(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}
	if req.Name == "" || req.StartsAt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("name and starts_at are required"))
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("starts_at must be RFC 3339"))
	}
	endsAt := startsAt.Add(30 * time.Minute)
	if req.EndsAt != "" {
		endsAt, err = time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("ends_at must be RFC 3339"))
		}
	}

	booking := &entity.Booking{
		ClientID: clientID,
		Name:     req.Name,
		Phone:    req.Phone,
		Service:  req.Service,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Notes:    req.Notes,
	}

	created, err := h.usecase.CreateBooking(ctx, booking)
	if err != nil {
		h.logger.Error("Booking failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not create booking"))
	}
	if !created {
		// A taken slot is a domain outcome the agent relays to the caller,
		// not a request failure.
		return c.JSON(entity.ToolResponse{
			"success": false,
			"error":   "that slot is no longer available",
		})
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"booking_id": booking.ID,
		"starts_at":  booking.StartsAt.Format(time.RFC3339),
	}))
}

type leadRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Source   string `json:"source"`
	Notes    string `json:"notes"`
	Status   string `json:"status"`
}

// CreateLead godoc
// @Summary Capture a lead from the call
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/leads [post]
func (h *ToolHandler) CreateLead(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}
	if req.Name == "" && req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("name or phone is required"))
	}

	lead := &entity.Lead{
		ClientID: clientID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Source:   req.Source,
		Notes:    req.Notes,
	}

	if err := h.usecase.CreateLead(ctx, lead); err != nil {
		h.logger.Error("Lead creation failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not create lead"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"lead_id": lead.ID,
	}))
}

// GetLead godoc
// @Summary Fetch a lead by id
// @Tags tools
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 404 {object} entity.ToolResponse
// @Router /tools/leads/{id} [get]
func (h *ToolHandler) GetLead(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := c.Query("client_id")
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}

	lead, err := h.usecase.GetLead(ctx, clientID, c.Params("id"))
	if err != nil {
		h.logger.Error("Lead lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not fetch lead"))
	}
	if lead == nil {
		return c.Status(fiber.StatusNotFound).JSON(entity.NewToolError("lead not found"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"lead": lead,
	}))
}

// ListLeads godoc
// @Summary List recent leads for a client
// @Tags tools
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/leads [get]
func (h *ToolHandler) ListLeads(c *fiber.Ctx) error {
	ctx := c.UserContext()

	clientID := c.Query("client_id")
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}

	leads, err := h.usecase.ListLeads(ctx, clientID, c.QueryInt("limit"))
	if err != nil {
		h.logger.Error("Lead listing failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not list leads"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"leads": leads,
		"count": len(leads),
	}))
}

// UpdateLead godoc
// @Summary Update a lead's details or status
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/leads/{id} [patch]
func (h *ToolHandler) UpdateLead(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}

	lead := &entity.Lead{
		ID:       c.Params("id"),
		ClientID: clientID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Source:   req.Source,
		Notes:    req.Notes,
		Status:   req.Status,
	}

	if err := h.usecase.UpdateLead(ctx, lead); err != nil {
		h.logger.Error("Lead update failed", zap.String("lead_id", lead.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not update lead"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"lead_id": lead.ID,
	}))
}

type escalateRequest struct {
	ClientID     string `json:"client_id"`
	CallID       string `json:"call_id"`
	Reason       string `json:"reason"`
	Caller       string `json:"caller"`
	NotifyNumber string `json:"notify_number"`
}

// Escalate godoc
// @Summary Escalate the call to a human
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/escalate [post]
func (h *ToolHandler) Escalate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req escalateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("reason is required"))
	}

	escalation := &entity.Escalation{
		ClientID: clientID,
		CallID:   req.CallID,
		Reason:   req.Reason,
		Caller:   req.Caller,
	}

	if err := h.usecase.Escalate(ctx, escalation, req.NotifyNumber); err != nil {
		h.logger.Error("Escalation failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not record escalation"))
	}

	return c.JSON(entity.NewToolSuccess(map[string]interface{}{
		"escalation_id": escalation.ID,
	}))
}

type smsRequest struct {
	ClientID string `json:"client_id"`
	To       string `json:"to"`
	Body     string `json:"body"`
}

// SendSMS godoc
// @Summary Send an SMS through the client's Twilio credentials
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/sms [post]
func (h *ToolHandler) SendSMS(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req smsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	clientID := toolClientID(c, req.ClientID)
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("client_id is required"))
	}
	if req.To == "" || req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("to and body are required"))
	}

	if err := h.usecase.SendSMS(ctx, clientID, req.To, req.Body); err != nil {
		h.logger.Error("SMS send failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not send sms"))
	}

	return c.JSON(entity.NewToolSuccess(nil))
}

type emailRequest struct {
	ClientID string `json:"client_id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// SendEmail godoc
// @Summary Send an email through the platform sender
// @Tags tools
// @Accept json
// @Produce json
// @Success 200 {object} entity.ToolResponse
// @Failure 400 {object} entity.ToolResponse
// @Router /tools/email [post]
func (h *ToolHandler) SendEmail(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("invalid request body"))
	}

	if req.To == "" || req.Subject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(entity.NewToolError("to and subject are required"))
	}

	if err := h.usecase.SendEmail(ctx, req.To, req.Subject, req.Body); err != nil {
		h.logger.Error("Email send failed", zap.String("to", req.To), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(entity.NewToolError("could not send email"))
	}

	return c.JSON(entity.NewToolSuccess(nil))
}
