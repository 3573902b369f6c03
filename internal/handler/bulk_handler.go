package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/utils"
)

// BulkHandler starts bulk grading batches and reports their progress.
type BulkHandler struct {
	service   service.BulkService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewBulkHandler constructs the handler.
func NewBulkHandler(service service.BulkService, validator *validator.Validate, logger zerolog.Logger) *BulkHandler {
	return &BulkHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "bulk_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *BulkHandler) Register(router fiber.Router) {
	router.Post("", h.start)
	router.Get("/:id", h.get)
	router.Get("/:id/export", h.export)
}

func (h *BulkHandler) start(c *fiber.Ctx) error {
	var payload dto.BulkGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	batch, err := h.service.Start(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "bulk grading started", dto.NewBulkBatchResponse(batch))
}

func (h *BulkHandler) get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "batch id is required")
	}

	batch, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "bulk batch retrieved", dto.NewBulkBatchResponse(batch))
}

func (h *BulkHandler) export(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "batch id is required")
	}

	data, err := h.service.Export(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendAttachment(c, "grading-results-"+id+".csv", "text/csv; charset=utf-8", data)
}

func (h *BulkHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "bulk batch not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("bulk operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
