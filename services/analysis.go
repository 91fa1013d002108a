package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/normalizer"
	"github.com/lac-hong-legacy/devscope/shared"
	"github.com/lac-hong-legacy/devscope/tracker"
)

var (
	ErrJobNotFound   = errors.New("analysis job not found")
	ErrNotJobOwner   = errors.New("only the job owner may edit it")
	ErrNotEventJob   = errors.New("job is not an event")
	ErrNotArchived   = errors.New("job payload is not archived")
	ErrInvalidRoster = errors.New("invalid roster")
)

const partialFailureNote = "partial failure: some ecosystems failed"

// JobStore persists analysis job records.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.AnalysisJob) (*model.AnalysisJob, error)
	GetJob(ctx context.Context, id string) (*model.AnalysisJob, error)
	UpdateJob(ctx context.Context, job *model.AnalysisJob) error
	ListInFlight(ctx context.Context) ([]model.AnalysisJob, error)
}

// JobTracker runs server-side polling for in-flight jobs.
type JobTracker interface {
	Track(jobID string)
	Restart(jobID string)
}

type AnalysisOptions struct {
	SeedProgress      int
	DefaultEcosystems []string
	MaxRosterSize     int
	ArchiveLinkTTL    time.Duration
}

// AnalysisService registers upstream analysis jobs and maintains their
// progressive view. Refresh is the single fetch, normalize, merge and
// persist routine shared by server-side polling and client polls.
type AnalysisService struct {
	appContext.DefaultService

	jobs     JobStore
	upstream UpstreamStore
	archive  ReportArchive
	tracker  JobTracker
	opts     AnalysisOptions

	locksMu sync.Mutex
	locks   map[string]*jobLock
}

// jobLock serializes work on one job. refs counts holders and waiters so
// the entry can go once nobody needs it.
type jobLock struct {
	mu   sync.Mutex
	refs int
}

const ANALYSIS_SVC = "analysis_svc"

func NewAnalysisService(jobs JobStore, upstream UpstreamStore, archive ReportArchive, opts AnalysisOptions) *AnalysisService {
	return &AnalysisService{
		jobs:     jobs,
		upstream: upstream,
		archive:  archive,
		opts:     opts,
	}
}

func (svc AnalysisService) Id() string {
	return ANALYSIS_SVC
}

func (svc *AnalysisService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AnalysisService) Start() error {
	cfg := svc.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.jobs = svc.Service(DATABASE_SVC).(*DatabaseService).Jobs()
	svc.archive = svc.Service(ARCHIVE_SVC).(*ArchiveService)
	svc.tracker = svc.Service(POLLING_SVC).(*PollingService)
	svc.upstream = NewUpstreamClient(cfg.UpstreamBaseURL, WithUpstreamTimeout(cfg.UpstreamTimeout))
	svc.opts = AnalysisOptions{
		SeedProgress:      cfg.SeedProgress,
		DefaultEcosystems: cfg.DefaultEcosystems,
		MaxRosterSize:     cfg.MaxRosterSize,
		ArchiveLinkTTL:    time.Hour,
	}
	return nil
}

// SetTracker attaches the server-side polling registry; nil disables it.
func (svc *AnalysisService) SetTracker(t JobTracker) {
	svc.tracker = t
}

// RegisterJob creates the upstream job, stores the local record with its
// seeded progressive view and hands it to server-side polling.
func (svc *AnalysisService) RegisterJob(ctx context.Context, req dto.JobRequest) (string, error) {
	ecosystems := svc.opts.DefaultEcosystems
	if req.Type == dto.JobTypeQuery && req.Keyword != "" {
		ecosystems = []string{req.Keyword}
	}

	upstreamID, err := svc.upstream.CreateJob(ctx, dto.UpstreamJobParams{
		Type:       req.Type,
		Query:      req.Query,
		Keyword:    req.Keyword,
		Handles:    req.Handles,
		Ecosystems: ecosystems,
	})
	if err != nil {
		return "", fmt.Errorf("create upstream job: %w", err)
	}

	partial, err := encodePartial(svc.seed(req.Handles, ecosystems))
	if err != nil {
		return "", err
	}
	requestData, err := encodeRequestData(req.RequestData)
	if err != nil {
		return "", err
	}

	job, err := svc.jobs.CreateJob(ctx, &model.AnalysisJob{
		Type:        string(req.Type),
		OwnerID:     req.OwnerID,
		Description: req.Description,
		Query:       req.Query,
		Keyword:     req.Keyword,
		RequestData: requestData,
		UpstreamID:  upstreamID,
		Status:      string(dto.StatusAnalyzing),
		Partial:     partial,
	})
	if err != nil {
		return "", fmt.Errorf("store job: %w", err)
	}

	log.WithFields(log.Fields{
		"job_id":      job.ID,
		"upstream_id": upstreamID,
		"type":        req.Type,
		"contestants": len(req.Handles),
	}).Info("Analysis job registered")

	if svc.tracker != nil {
		svc.tracker.Track(job.ID)
	}
	return job.ID, nil
}

func (svc *AnalysisService) seed(handles, ecosystems []string) []dto.PartialContestant {
	users := make([]dto.Developer, 0, len(handles))
	for _, h := range handles {
		users = append(users, dto.Developer{ID: h, Username: h, Name: h})
	}
	return tracker.Seed(users, ecosystems, svc.opts.SeedProgress)
}

// Refresh fetches the latest upstream payload of a job and folds it into
// the stored progressive view. Terminal jobs are returned untouched. An
// upstream failure is recorded on the job and returned.
func (svc *AnalysisService) Refresh(ctx context.Context, jobID string) (*model.AnalysisJob, error) {
	unlock := svc.lock(jobID)
	defer unlock()

	job, err := svc.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if dto.AnalysisStatus(job.Status).IsTerminal() {
		return job, nil
	}

	now := time.Now()
	job.PollCount++
	job.LastPolledAt = &now

	raw, fetchErr := svc.upstream.GetJob(ctx, job.UpstreamID)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return job, ctx.Err()
		}
		job.LastError = fetchErr.Error()
		if err := svc.jobs.UpdateJob(ctx, job); err != nil {
			return job, fmt.Errorf("store poll failure: %w", err)
		}
		return job, fmt.Errorf("fetch upstream job %s: %w", job.UpstreamID, fetchErr)
	}

	snapshot := normalizer.NormalizePartial(raw)
	merged := tracker.Merge(decodePartial(job.Partial), snapshot.Contestants)

	partial, err := encodePartial(merged)
	if err != nil {
		return job, err
	}
	job.Partial = partial
	job.Snapshot = string(raw)
	job.LastError = ""

	status, note := jobStatus(snapshot.Status, merged)
	job.Status = string(status)
	if status.IsTerminal() {
		job.CompletedAt = &now
		job.LastError = note
		svc.archivePayload(ctx, job, raw)
	}

	if err := svc.jobs.UpdateJob(ctx, job); err != nil {
		return job, fmt.Errorf("store job: %w", err)
	}

	if status.IsTerminal() {
		log.WithFields(log.Fields{
			"job_id": job.ID,
			"status": status,
			"polls":  job.PollCount,
		}).Info("Analysis job settled")
	}
	return job, nil
}

// jobStatus decides the job-level status. Completion requires every
// ecosystem of every contestant to be completed; a settled list with
// failures ends the job as failed with a partial-failure note.
func jobStatus(upstream dto.AnalysisStatus, list []dto.PartialContestant) (dto.AnalysisStatus, string) {
	switch {
	case tracker.IsComplete(list):
		return dto.StatusCompleted, ""
	case len(list) == 0 && upstream == dto.StatusCompleted:
		return dto.StatusCompleted, ""
	case upstream == dto.StatusFailed:
		return dto.StatusFailed, "upstream reported the job as failed"
	case tracker.IsSettled(list):
		return dto.StatusFailed, partialFailureNote
	}
	return dto.StatusAnalyzing, ""
}

// archivePayload moves a settled payload to object storage. On failure the
// payload stays on the record.
func (svc *AnalysisService) archivePayload(ctx context.Context, job *model.AnalysisJob, raw []byte) {
	if svc.archive == nil || !svc.archive.Enabled() {
		return
	}
	key, err := svc.archive.PutReport(ctx, job.ID, raw)
	if err != nil {
		log.WithFields(log.Fields{
			"job_id": job.ID,
			"error":  err,
		}).Warn("Failed to archive report payload")
		return
	}
	job.ArchiveKey = key
	job.Snapshot = ""
}

// ExpireJob ends a job that never settled within the polling ceiling.
func (svc *AnalysisService) ExpireJob(ctx context.Context, jobID, reason string) error {
	unlock := svc.lock(jobID)
	defer unlock()

	job, err := svc.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if dto.AnalysisStatus(job.Status).IsTerminal() {
		return nil
	}

	now := time.Now()
	job.Status = string(dto.StatusFailed)
	job.LastError = reason
	job.CompletedAt = &now
	return svc.jobs.UpdateJob(ctx, job)
}

// InFlightJobs lists jobs that still need polling.
func (svc *AnalysisService) InFlightJobs(ctx context.Context) ([]string, error) {
	jobs, err := svc.jobs.ListInFlight(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return ids, nil
}

// PollPartial refreshes a job and returns its progressive view. Upstream
// failures do not fail the call: the last stored view is returned with
// LastError set.
func (svc *AnalysisService) PollPartial(ctx context.Context, jobID string) (dto.PartialResponse, error) {
	job, err := svc.Refresh(ctx, jobID)
	if job == nil {
		return dto.PartialResponse{}, err
	}
	if err != nil && !errors.Is(err, ErrUpstreamUnavailable) && !errors.Is(err, ErrUpstreamNotFound) &&
		!errors.Is(err, ErrUpstreamInvalidResponse) && !errors.Is(err, ErrUpstreamRejected) {
		return dto.PartialResponse{}, err
	}

	list := decodePartial(job.Partial)
	return dto.PartialResponse{
		JobID:           job.ID,
		Status:          dto.AnalysisStatus(job.Status),
		Contestants:     list,
		OverallProgress: tracker.OverallProgress(list),
		Complete:        svc.IsJobComplete(list),
		LastError:       job.LastError,
	}, nil
}

// IsJobComplete is the authoritative stop condition for polling.
func (svc *AnalysisService) IsJobComplete(list []dto.PartialContestant) bool {
	return tracker.IsComplete(list)
}

// FetchReport returns the fully resolved report. In-flight jobs are
// refreshed first; the stored or archived payload is then normalized.
func (svc *AnalysisService) FetchReport(ctx context.Context, jobID string) (dto.EventReport, error) {
	job, err := svc.Refresh(ctx, jobID)
	if job == nil {
		return dto.EventReport{}, err
	}
	if err != nil {
		log.WithFields(log.Fields{
			"job_id": jobID,
			"error":  err,
		}).Warn("Serving report from the last stored payload")
	}

	raw, err := svc.payload(ctx, job)
	if err != nil {
		return dto.EventReport{}, err
	}

	report := normalizer.Normalize(raw)
	report.ID = job.ID
	if report.Type == "" {
		report.Type = job.Type
	}
	if report.Description == "" {
		report.Description = job.Description
	}
	if len(report.RequestData) == 0 {
		report.RequestData = decodeRequestData(job.RequestData)
	}
	return report, nil
}

func (svc *AnalysisService) payload(ctx context.Context, job *model.AnalysisJob) ([]byte, error) {
	if job.Snapshot != "" {
		return []byte(job.Snapshot), nil
	}
	if job.ArchiveKey != "" && svc.archive != nil {
		raw, err := svc.archive.GetReport(ctx, job.ArchiveKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return raw, nil
	}
	// never fetched successfully; an empty payload yields an empty report
	return []byte("{}"), nil
}

func (svc *AnalysisService) JobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
	job, err := svc.getJob(ctx, jobID)
	if err != nil {
		return dto.JobStatusResponse{}, err
	}
	return statusResponse(job), nil
}

func statusResponse(job *model.AnalysisJob) dto.JobStatusResponse {
	list := decodePartial(job.Partial)
	resp := dto.JobStatusResponse{
		ID:              job.ID,
		Type:            job.Type,
		Status:          dto.AnalysisStatus(job.Status),
		OverallProgress: tracker.OverallProgress(list),
		Complete:        dto.AnalysisStatus(job.Status) == dto.StatusCompleted,
		PollCount:       job.PollCount,
		LastError:       job.LastError,
	}
	if job.CompletedAt != nil {
		ts := job.CompletedAt.Unix()
		resp.CompletedAt = &ts
	}
	return resp
}

// ArchiveURL returns a presigned link to the archived raw payload.
func (svc *AnalysisService) ArchiveURL(ctx context.Context, jobID string) (dto.ArchiveResponse, error) {
	job, err := svc.getJob(ctx, jobID)
	if err != nil {
		return dto.ArchiveResponse{}, err
	}
	if job.ArchiveKey == "" || svc.archive == nil || !svc.archive.Enabled() {
		return dto.ArchiveResponse{}, ErrNotArchived
	}

	ttl := svc.opts.ArchiveLinkTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	url, err := svc.archive.ReportURL(ctx, job.ArchiveKey, ttl)
	if err != nil {
		return dto.ArchiveResponse{}, err
	}
	return dto.ArchiveResponse{JobID: job.ID, URL: url, ExpiresIn: int64(ttl.Seconds())}, nil
}

// EditEvent re-derives an event's roster from its stored request data and
// restarts the analysis under the same job id. No quota is consumed.
func (svc *AnalysisService) EditEvent(ctx context.Context, identity dto.Identity, jobID string, req dto.EditEventRequest) (dto.JobStatusResponse, error) {
	unlock := svc.lock(jobID)
	status, err := svc.editEvent(ctx, identity, jobID, req)
	unlock()
	if err != nil {
		return dto.JobStatusResponse{}, err
	}

	// outside the job lock: stopping the old task waits for its tick
	if svc.tracker != nil {
		svc.tracker.Restart(jobID)
	}
	return status, nil
}

func (svc *AnalysisService) editEvent(ctx context.Context, identity dto.Identity, jobID string, req dto.EditEventRequest) (dto.JobStatusResponse, error) {
	job, err := svc.getJob(ctx, jobID)
	if err != nil {
		return dto.JobStatusResponse{}, err
	}
	if job.Type != string(dto.JobTypeEvent) {
		return dto.JobStatusResponse{}, ErrNotEventJob
	}
	if !identity.Authenticated() || identity.UserID != job.OwnerID {
		return dto.JobStatusResponse{}, ErrNotJobOwner
	}

	entries := EditRoster(decodeRequestData(job.RequestData), req.Add, req.Remove)
	handles, err := ParseRoster(entries, svc.opts.MaxRosterSize)
	if err != nil {
		return dto.JobStatusResponse{}, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	if req.Description != nil {
		job.Description = strings.TrimSpace(*req.Description)
	}

	upstreamID, err := svc.upstream.CreateJob(ctx, dto.UpstreamJobParams{
		Type:       dto.JobTypeEvent,
		Handles:    handles,
		Ecosystems: svc.opts.DefaultEcosystems,
	})
	if err != nil {
		return dto.JobStatusResponse{}, fmt.Errorf("create upstream job: %w", err)
	}

	partial, err := encodePartial(svc.seed(handles, svc.opts.DefaultEcosystems))
	if err != nil {
		return dto.JobStatusResponse{}, err
	}
	requestData, err := encodeRequestData(entries)
	if err != nil {
		return dto.JobStatusResponse{}, err
	}

	if job.ArchiveKey != "" && svc.archive != nil && svc.archive.Enabled() {
		if err := svc.archive.DeleteReport(ctx, job.ArchiveKey); err != nil {
			log.WithFields(log.Fields{"job_id": job.ID, "error": err}).Warn("Failed to delete archived report")
		}
	}

	job.UpstreamID = upstreamID
	job.RequestData = requestData
	job.Partial = partial
	job.Status = string(dto.StatusAnalyzing)
	job.Snapshot = ""
	job.ArchiveKey = ""
	job.PollCount = 0
	job.LastPolledAt = nil
	job.LastError = ""
	job.CompletedAt = nil

	if err := svc.jobs.UpdateJob(ctx, job); err != nil {
		return dto.JobStatusResponse{}, fmt.Errorf("store job: %w", err)
	}

	log.WithFields(log.Fields{
		"job_id":      job.ID,
		"upstream_id": upstreamID,
		"contestants": len(handles),
	}).Info("Event roster edited, analysis restarted")

	return statusResponse(job), nil
}

// EditRoster applies removals then additions to the original entries.
// Entries are compared by their GitHub handle, case-insensitively, so a
// URL and a bare login for the same user are the same entry.
func EditRoster(entries, add, remove []string) []string {
	removed := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		removed[entryKey(r)] = struct{}{}
	}

	out := make([]string, 0, len(entries)+len(add))
	present := make(map[string]struct{}, len(entries)+len(add))
	for _, e := range entries {
		key := entryKey(e)
		if _, drop := removed[key]; drop {
			continue
		}
		present[key] = struct{}{}
		out = append(out, e)
	}
	for _, a := range add {
		key := entryKey(a)
		if _, dup := present[key]; dup {
			continue
		}
		present[key] = struct{}{}
		out = append(out, strings.TrimSpace(a))
	}
	return out
}

func entryKey(entry string) string {
	if handle, ok := dto.RosterHandle(entry); ok {
		return strings.ToLower(handle)
	}
	return strings.ToLower(strings.TrimSpace(entry))
}

func (svc *AnalysisService) getJob(ctx context.Context, jobID string) (*model.AnalysisJob, error) {
	job, err := svc.jobs.GetJob(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}

func (svc *AnalysisService) lock(jobID string) func() {
	svc.locksMu.Lock()
	if svc.locks == nil {
		svc.locks = make(map[string]*jobLock)
	}
	l, ok := svc.locks[jobID]
	if !ok {
		l = &jobLock{}
		svc.locks[jobID] = l
	}
	l.refs++
	svc.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		svc.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(svc.locks, jobID)
		}
		svc.locksMu.Unlock()
	}
}

func (svc *AnalysisService) heldLocks() int {
	svc.locksMu.Lock()
	defer svc.locksMu.Unlock()
	return len(svc.locks)
}

func encodePartial(list []dto.PartialContestant) (string, error) {
	if list == nil {
		list = []dto.PartialContestant{}
	}
	b, err := shared.JSON().Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode partial view: %w", err)
	}
	return string(b), nil
}

// decodePartial treats an unreadable stored view as empty.
func decodePartial(s string) []dto.PartialContestant {
	list := []dto.PartialContestant{}
	if s == "" {
		return list
	}
	if err := shared.JSON().UnmarshalFromString(s, &list); err != nil {
		log.WithError(err).Warn("Discarding unreadable partial view")
		return []dto.PartialContestant{}
	}
	return list
}

func encodeRequestData(entries []string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	b, err := shared.JSON().Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode request data: %w", err)
	}
	return string(b), nil
}

func decodeRequestData(s string) []string {
	if s == "" {
		return nil
	}
	var entries []string
	if err := shared.JSON().UnmarshalFromString(s, &entries); err != nil {
		return nil
	}
	return entries
}
