package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/shared"
)

type stubGateway struct {
	result   dto.SubmitResult
	err      error
	identity dto.Identity
	entries  []string
}

func (s *stubGateway) AttemptSubmission(_ context.Context, identity dto.Identity, _ string) (dto.SubmitResult, error) {
	s.identity = identity
	return s.result, s.err
}

func (s *stubGateway) AttemptEventSubmission(_ context.Context, identity dto.Identity, _ string, entries []string) (dto.SubmitResult, error) {
	s.identity = identity
	s.entries = entries
	return s.result, s.err
}

func submit(t *testing.T, gateway *stubGateway, path, body string) int {
	t.Helper()
	h := NewSubmissionHandler(gateway)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); ok {
				return c.SendStatus(appErr.StatusCode)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Post("/queries", h.SubmitQuery)
	app.Post("/events", h.SubmitEvent)

	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", "203.0.113.1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestSubmissionHandler_StatusCodes(t *testing.T) {
	reset := time.Now().Add(time.Hour)
	info := &dto.RateLimitInfo{Class: "guest", Limit: 20, ResetTime: &reset}

	cases := []struct {
		name   string
		result dto.SubmitResult
		want   int
	}{
		{"accepted", dto.SubmitResult{Accepted: true, JobID: "j", RateLimit: info}, fiber.StatusAccepted},
		{"guest ceiling", dto.SubmitResult{RejectionReason: dto.RejectSignInRequired, RateLimit: info}, fiber.StatusTooManyRequests},
		{"user ceiling", dto.SubmitResult{RejectionReason: dto.RejectQuotaExhausted, RateLimit: info}, fiber.StatusTooManyRequests},
		{"store down", dto.SubmitResult{RejectionReason: dto.RejectQuotaUnavailable, RateLimit: info}, fiber.StatusServiceUnavailable},
		{"too long", dto.SubmitResult{RejectionReason: dto.RejectQueryTooLong, RateLimit: info}, fiber.StatusBadRequest},
		{"unsupported", dto.SubmitResult{RejectionReason: dto.RejectUnsupportedQuery, RateLimit: info}, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &stubGateway{result: tc.result}
			assert.Equal(t, tc.want, submit(t, gateway, "/queries", `{"query":"solana"}`))
			assert.Equal(t, "203.0.113.1", gateway.identity.Address)
		})
	}
}

func TestSubmissionHandler_GatewayFailure(t *testing.T) {
	gateway := &stubGateway{err: errors.New("classifier down")}
	assert.Equal(t, fiber.StatusServiceUnavailable, submit(t, gateway, "/queries", `{"query":"solana"}`))
}

func TestSubmissionHandler_MalformedBody(t *testing.T) {
	gateway := &stubGateway{}
	assert.Equal(t, fiber.StatusBadRequest, submit(t, gateway, "/queries", `{"query":`))
}

func TestSubmissionHandler_EventValidation(t *testing.T) {
	gateway := &stubGateway{result: dto.SubmitResult{Accepted: true}}

	assert.Equal(t, fiber.StatusBadRequest, submit(t, gateway, "/events", `{"entries":[]}`))
	assert.Nil(t, gateway.entries)

	assert.Equal(t, fiber.StatusAccepted, submit(t, gateway, "/events", `{"entries":["octocat"]}`))
	assert.Equal(t, []string{"octocat"}, gateway.entries)
}
