package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edugrade/grader-api/internal/dto"
	"github.com/edugrade/grader-api/internal/service"
	"github.com/edugrade/grader-api/internal/utils"
)

// GradingHandler exposes the grading endpoints.
type GradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/grade", h.grade)
	router.Post("/grade/batch", h.gradeBatch)
	router.Post("/prompt", h.prompt)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.service.Grade(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", report)
}

func (h *GradingHandler) gradeBatch(c *fiber.Ctx) error {
	var payload dto.BatchGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reports, err := h.service.GradeBatch(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch graded", reports)
}

func (h *GradingHandler) prompt(c *fiber.Ctx) error {
	var payload dto.PromptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Prompt(payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prompt generated", response)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("grading operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
