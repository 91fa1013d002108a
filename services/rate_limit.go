package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/shared"
)

var ErrEmptyRoster = errors.New("roster has no usable entries")

// JobRegistrar registers an accepted submission as an upstream analysis job.
type JobRegistrar interface {
	RegisterJob(ctx context.Context, req dto.JobRequest) (string, error)
}

// SubmissionRecorder receives one call per gateway decision.
type SubmissionRecorder interface {
	RecordSubmission(jobType dto.JobType, class model.LimiterClass, outcome string, reason dto.RejectionReason)
}

type GatewayLimits struct {
	GuestLimit     int64
	UserLimit      int64
	Window         time.Duration
	MaxQueryLength int
	MaxRosterSize  int
}

// RateLimitService is the submission gateway. Every attempt consumes one
// point from the caller's quota bucket before any content validation runs.
type RateLimitService struct {
	appContext.DefaultService

	store      QuotaStore
	classifier KeywordClassifier
	registrar  JobRegistrar
	recorder   SubmissionRecorder
	limits     GatewayLimits
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func NewRateLimitService(store QuotaStore, classifier KeywordClassifier, registrar JobRegistrar, limits GatewayLimits) *RateLimitService {
	return &RateLimitService{
		store:      store,
		classifier: classifier,
		registrar:  registrar,
		limits:     limits,
	}
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	cfg := svc.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.store = svc.Service(REDIS_SVC).(*RedisService)
	svc.registrar = svc.Service(ANALYSIS_SVC).(*AnalysisService)
	svc.recorder = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.classifier = NewKeywordClassifier(cfg.ClassifierURL, cfg.UpstreamTimeout)
	svc.limits = GatewayLimits{
		GuestLimit:     cfg.GuestDailyLimit,
		UserLimit:      cfg.UserDailyLimit,
		Window:         cfg.QuotaWindow,
		MaxQueryLength: cfg.MaxQueryLength,
		MaxRosterSize:  cfg.MaxRosterSize,
	}
	return nil
}

// SetRecorder attaches a decision recorder; nil disables recording.
func (svc *RateLimitService) SetRecorder(recorder SubmissionRecorder) {
	svc.recorder = recorder
}

// QuotaKey selects the limiter class and bucket key for identity. Guest
// addresses are hashed so raw addresses never reach the store; callers
// without any address share the "unknown" bucket.
func QuotaKey(identity dto.Identity) (model.LimiterClass, string) {
	if identity.Authenticated() {
		return model.LimiterAuthenticated, fmt.Sprintf("%s:%s:%s", shared.QuotaKeyPrefix, model.LimiterAuthenticated, identity.UserID)
	}
	address := strings.TrimSpace(identity.Address)
	if address == "" {
		address = shared.UnknownAddress
	}
	sum := blake2b.Sum256([]byte(address))
	return model.LimiterGuest, fmt.Sprintf("%s:%s:%s", shared.QuotaKeyPrefix, model.LimiterGuest, hex.EncodeToString(sum[:16]))
}

func (svc *RateLimitService) limitFor(class model.LimiterClass) int64 {
	if class == model.LimiterAuthenticated {
		return svc.limits.UserLimit
	}
	return svc.limits.GuestLimit
}

// consume takes one point. A non-empty reason means the attempt is rejected.
func (svc *RateLimitService) consume(ctx context.Context, identity dto.Identity) (*dto.RateLimitInfo, dto.RejectionReason) {
	class, key := QuotaKey(identity)
	limit := svc.limitFor(class)
	info := &dto.RateLimitInfo{Class: string(class), Limit: limit}

	bucket, ok, err := svc.store.ConsumeWindow(ctx, key, 1, limit, svc.limits.Window)
	if err != nil {
		log.WithFields(log.Fields{
			"class": class,
			"error": err,
		}).Error("Quota store unavailable, rejecting submission")
		return info, dto.RejectQuotaUnavailable
	}

	resetsAt := bucket.ResetsAt()
	info.Allowed = ok
	info.Remaining = bucket.Remaining(limit)
	info.ResetTime = &resetsAt

	if ok {
		return info, ""
	}
	if class == model.LimiterAuthenticated {
		return info, dto.RejectQuotaExhausted
	}
	return info, dto.RejectSignInRequired
}

// AttemptSubmission runs a free-text query through the gateway. Expected
// refusals come back as a rejected result; err is reserved for failures of
// the classifier or the job registrar.
func (svc *RateLimitService) AttemptSubmission(ctx context.Context, identity dto.Identity, text string) (dto.SubmitResult, error) {
	info, reason := svc.consume(ctx, identity)
	if reason != "" {
		return svc.reject(dto.JobTypeQuery, info, reason, ""), nil
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > svc.limits.MaxQueryLength {
		return svc.reject(dto.JobTypeQuery, info, dto.RejectQueryTooLong,
			fmt.Sprintf("Query must be at most %d characters", svc.limits.MaxQueryLength)), nil
	}

	keyword, err := svc.classifier.Classify(ctx, text)
	if err != nil {
		svc.record(dto.JobTypeQuery, info, "error", "")
		return dto.SubmitResult{}, fmt.Errorf("classify query: %w", err)
	}
	if keyword == "" {
		return svc.reject(dto.JobTypeQuery, info, dto.RejectUnsupportedQuery, ""), nil
	}

	jobID, err := svc.registrar.RegisterJob(ctx, dto.JobRequest{
		Type:    dto.JobTypeQuery,
		OwnerID: identity.UserID,
		Query:   text,
		Keyword: keyword,
	})
	if err != nil {
		svc.record(dto.JobTypeQuery, info, "error", "")
		return dto.SubmitResult{}, fmt.Errorf("register query job: %w", err)
	}

	svc.record(dto.JobTypeQuery, info, "accepted", "")
	return dto.SubmitResult{Accepted: true, JobID: jobID, Keyword: keyword, RateLimit: info}, nil
}

// AttemptEventSubmission runs a roster through the gateway. Entries are kept
// verbatim as request data; handles are de-duplicated case-insensitively.
func (svc *RateLimitService) AttemptEventSubmission(ctx context.Context, identity dto.Identity, description string, entries []string) (dto.SubmitResult, error) {
	info, reason := svc.consume(ctx, identity)
	if reason != "" {
		return svc.reject(dto.JobTypeEvent, info, reason, ""), nil
	}

	handles, err := ParseRoster(entries, svc.limits.MaxRosterSize)
	if err != nil {
		return svc.reject(dto.JobTypeEvent, info, dto.RejectInvalidRoster, err.Error()), nil
	}

	jobID, err := svc.registrar.RegisterJob(ctx, dto.JobRequest{
		Type:        dto.JobTypeEvent,
		OwnerID:     identity.UserID,
		Description: strings.TrimSpace(description),
		Handles:     handles,
		RequestData: entries,
	})
	if err != nil {
		svc.record(dto.JobTypeEvent, info, "error", "")
		return dto.SubmitResult{}, fmt.Errorf("register event job: %w", err)
	}

	svc.record(dto.JobTypeEvent, info, "accepted", "")
	return dto.SubmitResult{Accepted: true, JobID: jobID, RateLimit: info}, nil
}

// ParseRoster turns roster entries into unique GitHub logins.
func ParseRoster(entries []string, maxSize int) ([]string, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyRoster
	}
	if maxSize > 0 && len(entries) > maxSize {
		return nil, fmt.Errorf("roster has %d entries, at most %d are allowed", len(entries), maxSize)
	}

	seen := make(map[string]struct{}, len(entries))
	handles := make([]string, 0, len(entries))
	for _, entry := range entries {
		handle, ok := dto.RosterHandle(entry)
		if !ok {
			return nil, fmt.Errorf("%q is not a GitHub profile URL or username", entry)
		}
		key := strings.ToLower(handle)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		handles = append(handles, handle)
	}
	return handles, nil
}

var rejectionMessages = map[dto.RejectionReason]string{
	dto.RejectSignInRequired:   "Daily guest limit reached. Sign in to continue.",
	dto.RejectQuotaExhausted:   "Daily limit reached. Please try again tomorrow.",
	dto.RejectQuotaUnavailable: "Submissions are temporarily unavailable. Please try again shortly.",
	dto.RejectQueryTooLong:     "Query is too long.",
	dto.RejectUnsupportedQuery: "We could not find a supported topic in this query.",
	dto.RejectInvalidRoster:    "Roster is invalid.",
}

func (svc *RateLimitService) reject(jobType dto.JobType, info *dto.RateLimitInfo, reason dto.RejectionReason, message string) dto.SubmitResult {
	if message == "" {
		message = rejectionMessages[reason]
	}
	svc.record(jobType, info, "rejected", reason)
	return dto.SubmitResult{
		RejectionReason: reason,
		Message:         message,
		RateLimit:       info,
	}
}

func (svc *RateLimitService) record(jobType dto.JobType, info *dto.RateLimitInfo, outcome string, reason dto.RejectionReason) {
	if svc.recorder == nil {
		return
	}
	svc.recorder.RecordSubmission(jobType, model.LimiterClass(info.Class), outcome, reason)
}
