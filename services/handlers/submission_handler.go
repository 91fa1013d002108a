package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/middleware"
	"github.com/lac-hong-legacy/devscope/shared"
)

type SubmissionHandler struct {
	gateway SubmissionGatewayInterface
}

func NewSubmissionHandler(gateway SubmissionGatewayInterface) *SubmissionHandler {
	return &SubmissionHandler{gateway: gateway}
}

// @Summary Submit Query
// @Description Submits a free-text query for analysis. Every attempt consumes one point of the caller's daily quota before the query is validated.
// @Tags submissions
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param submitQueryRequest body dto.SubmitQueryRequest true "Query"
// @Success 202 {object} shared.Response{data=dto.SubmitResult}
// @Failure 400 {object} shared.Response{data=dto.SubmitResult}
// @Failure 429 {object} shared.Response{data=dto.SubmitResult}
// @Failure 503 {object} shared.Response{data=dto.SubmitResult}
// @Router /api/v1/queries [post]
func (h *SubmissionHandler) SubmitQuery(c *fiber.Ctx) error {
	var req dto.SubmitQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	result, err := h.gateway.AttemptSubmission(c.UserContext(), middleware.Identity(c), req.Query)
	if err != nil {
		return shared.NewServiceUnavailableError(err, "Analysis is temporarily unavailable, please try again")
	}

	return h.respond(c, result)
}

// @Summary Submit Event
// @Description Submits an event roster (GitHub profile URLs or logins) for analysis. Consumes quota like a query.
// @Tags submissions
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param submitEventRequest body dto.SubmitEventRequest true "Event roster"
// @Success 202 {object} shared.Response{data=dto.SubmitResult}
// @Failure 400 {object} shared.Response{data=dto.SubmitResult}
// @Failure 429 {object} shared.Response{data=dto.SubmitResult}
// @Failure 503 {object} shared.Response{data=dto.SubmitResult}
// @Router /api/v1/events [post]
func (h *SubmissionHandler) SubmitEvent(c *fiber.Ctx) error {
	var req dto.SubmitEventRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	result, err := h.gateway.AttemptEventSubmission(c.UserContext(), middleware.Identity(c), req.Description, req.Entries)
	if err != nil {
		return shared.NewServiceUnavailableError(err, "Analysis is temporarily unavailable, please try again")
	}

	return h.respond(c, result)
}

func (h *SubmissionHandler) respond(c *fiber.Ctx, result dto.SubmitResult) error {
	middleware.SetRateLimitHeaders(c, result.RateLimit)

	if result.Accepted {
		return shared.ResponseJSON(c, fiber.StatusAccepted, "Accepted", result)
	}
	return shared.ResponseJSON(c, rejectionStatus(result.RejectionReason), result.Message, result)
}

func rejectionStatus(reason dto.RejectionReason) int {
	switch {
	case reason.IsQuota():
		return fiber.StatusTooManyRequests
	case reason.IsTransient():
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusBadRequest
}
