package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/services/repositories"
)

type fakeClassifier struct {
	mu      sync.Mutex
	calls   int
	keyword string
	err     error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.keyword, f.err
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRegistrar struct {
	mu       sync.Mutex
	requests []dto.JobRequest
	err      error
}

func (f *fakeRegistrar) RegisterJob(_ context.Context, req dto.JobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return fmt.Sprintf("job-%d", len(f.requests)), nil
}

type recordedSubmission struct {
	jobType dto.JobType
	class   model.LimiterClass
	outcome string
	reason  dto.RejectionReason
}

type fakeSubmissionRecorder struct {
	mu      sync.Mutex
	records []recordedSubmission
}

func (f *fakeSubmissionRecorder) RecordSubmission(jobType dto.JobType, class model.LimiterClass, outcome string, reason dto.RejectionReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedSubmission{jobType, class, outcome, reason})
}

// fakeUpstream serves scripted payloads per upstream job id. Each GetJob
// pops the next payload; the last one repeats.
type fakeUpstream struct {
	mu        sync.Mutex
	created   []dto.UpstreamJobParams
	payloads  map[string][][]byte
	getErr    error
	createErr error
	gets      int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{payloads: make(map[string][][]byte)}
}

func (f *fakeUpstream) CreateJob(_ context.Context, params dto.UpstreamJobParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, params)
	return fmt.Sprintf("up-%d", len(f.created)), nil
}

func (f *fakeUpstream) GetJob(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	queue := f.payloads[id]
	if len(queue) == 0 {
		return nil, ErrUpstreamNotFound
	}
	next := queue[0]
	if len(queue) > 1 {
		f.payloads[id] = queue[1:]
	}
	return next, nil
}

func (f *fakeUpstream) script(id string, payloads ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range payloads {
		f.payloads[id] = append(f.payloads[id], []byte(p))
	}
}

func (f *fakeUpstream) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (f *fakeArchive) Enabled() bool { return true }

func (f *fakeArchive) PutReport(_ context.Context, jobID string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ReportKey(jobID)
	f.objects[key] = append([]byte(nil), payload...)
	return key, nil
}

func (f *fakeArchive) GetReport(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return raw, nil
}

func (f *fakeArchive) ReportURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://archive.local/%s?expires=%d", key, int64(expiry.Seconds())), nil
}

func (f *fakeArchive) DeleteReport(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeTracker struct {
	mu        sync.Mutex
	tracked   []string
	restarted []string
}

func (f *fakeTracker) Track(jobID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, jobID)
}

func (f *fakeTracker) Restart(jobID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarted = append(f.restarted, jobID)
}

func newTestJobRepository(t *testing.T) *repositories.JobRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ds, err := NewDatabaseService(db, 0)
	require.NoError(t, err)
	return ds.Jobs()
}
