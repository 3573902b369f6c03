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
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service   service.AssignmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// RegisterRead attaches the read endpoints. Hidden test cases are stripped.
func (h *AssignmentHandler) RegisterRead(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterWrite attaches the endpoints that change assignments.
func (h *AssignmentHandler) RegisterWrite(router fiber.Router, guards ...fiber.Handler) {
	router.Post("", chain(guards, h.create)...)
	router.Put("/:id", chain(guards, h.update)...)
	router.Delete("/:id", chain(guards, h.delete)...)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	assignments, err := h.service.List(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}

	public := make([]models.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		public = append(public, withoutHiddenTests(assignment))
	}

	return utils.SendSuccess(c, "assignments retrieved", public)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment id is required")
	}

	assignment, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", withoutHiddenTests(assignment))
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	assignment, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment id is required")
	}

	var payload dto.AssignmentPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	assignment, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment id is required")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, judge.ErrUnsupportedLanguage), errors.Is(err, models.ErrInvalidRubric):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrAssignmentExists):
		return utils.SendError(c, fiber.StatusConflict, "assignment already exists")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assignment operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func withoutHiddenTests(assignment models.Assignment) models.Assignment {
	assignment.TestCases = assignment.VisibleTestCases()
	return assignment
}
