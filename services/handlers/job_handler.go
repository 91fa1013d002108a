package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/middleware"
	"github.com/lac-hong-legacy/devscope/shared"
)

type JobHandler struct {
	analysisSvc AnalysisServiceInterface
}

func NewJobHandler(analysisSvc AnalysisServiceInterface) *JobHandler {
	return &JobHandler{analysisSvc: analysisSvc}
}

// @Summary Get Report
// @Description Returns the fully resolved report of a job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} shared.Response{data=dto.EventReport}
// @Failure 404 {object} shared.Response
// @Router /api/v1/jobs/{id}/report [get]
func (h *JobHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.analysisSvc.FetchReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", report)
}

// @Summary Get Partial Results
// @Description Refreshes a job and returns its progressive view. Poll until complete is true.
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} shared.Response{data=dto.PartialResponse}
// @Failure 404 {object} shared.Response
// @Router /api/v1/jobs/{id}/partial [get]
func (h *JobHandler) GetPartial(c *fiber.Ctx) error {
	partial, err := h.analysisSvc.PollPartial(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", partial)
}

// @Summary Get Job Status
// @Description Returns the stored status of a job without contacting the analysis service
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} shared.Response{data=dto.JobStatusResponse}
// @Failure 404 {object} shared.Response
// @Router /api/v1/jobs/{id}/status [get]
func (h *JobHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.analysisSvc.JobStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", status)
}

// @Summary Get Archived Payload
// @Description Returns a short-lived download link to the archived raw payload of a settled job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} shared.Response{data=dto.ArchiveResponse}
// @Failure 404 {object} shared.Response
// @Router /api/v1/jobs/{id}/archive [get]
func (h *JobHandler) GetArchive(c *fiber.Ctx) error {
	archive, err := h.analysisSvc.ArchiveURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", archive)
}

// @Summary Edit Event
// @Description Adds or removes roster entries of an event and restarts its analysis. Owner only; does not consume quota.
// @Tags jobs
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param editEventRequest body dto.EditEventRequest true "Roster changes"
// @Success 200 {object} shared.Response{data=dto.JobStatusResponse}
// @Failure 400 {object} shared.Response
// @Failure 403 {object} shared.Response
// @Failure 404 {object} shared.Response
// @Router /api/v1/events/{id} [put]
func (h *JobHandler) EditEvent(c *fiber.Ctx) error {
	var req dto.EditEventRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	status, err := h.analysisSvc.EditEvent(c.UserContext(), middleware.Identity(c), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", status)
}
