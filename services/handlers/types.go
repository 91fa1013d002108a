package handlers

import (
	"context"

	"github.com/lac-hong-legacy/devscope/dto"
)

type SubmissionGatewayInterface interface {
	AttemptSubmission(ctx context.Context, identity dto.Identity, text string) (dto.SubmitResult, error)
	AttemptEventSubmission(ctx context.Context, identity dto.Identity, description string, entries []string) (dto.SubmitResult, error)
}

type AnalysisServiceInterface interface {
	FetchReport(ctx context.Context, jobID string) (dto.EventReport, error)
	PollPartial(ctx context.Context, jobID string) (dto.PartialResponse, error)
	JobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error)
	ArchiveURL(ctx context.Context, jobID string) (dto.ArchiveResponse, error)
	EditEvent(ctx context.Context, identity dto.Identity, jobID string, req dto.EditEventRequest) (dto.JobStatusResponse, error)
}
