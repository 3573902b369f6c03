package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/utils"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// GradingHandler exposes the execute, grade, run-tests and grade-individual endpoints.
type GradingHandler struct {
	grading   service.GradingService
	feedback  service.FeedbackService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, feedback service.FeedbackService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:   grading,
		feedback:  feedback,
		validator: validator,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterStudent attaches the endpoints students use while working on a submission.
func (h *GradingHandler) RegisterStudent(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/execute", chain(guards, h.execute)...)
	router.Post("/grade", chain(guards, h.grade)...)
}

// RegisterInstructor attaches the instructor-only endpoints.
func (h *GradingHandler) RegisterInstructor(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/run-tests", chain(guards, h.runTests)...)
	router.Post("/grade-individual", chain(guards, h.gradeIndividual)...)
}

func (h *GradingHandler) execute(c *fiber.Ctx) error {
	var payload dto.ExecuteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	response, err := h.grading.Execute(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "code executed", response)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	result, err := h.grading.Grade(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result.WithoutHiddenCases())
}

func (h *GradingHandler) runTests(c *fiber.Ctx) error {
	var payload dto.RunTestsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	response, err := h.grading.RunTests(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "tests executed", response)
}

func (h *GradingHandler) gradeIndividual(c *fiber.Ctx) error {
	var payload dto.GradeIndividualRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	feedback, err := h.feedback.GradeIndividual(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback generated", feedback)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, judge.ErrUnsupportedLanguage),
		errors.Is(err, ai.ErrUnknownModel),
		errors.Is(err, models.ErrInvalidRubric),
		errors.Is(err, service.ErrAssignmentRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("grading request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
