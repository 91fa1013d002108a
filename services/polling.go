package services

import (
	"context"
	"errors"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/poller"
)

// JobRefresher is the analysis side of server-side polling.
type JobRefresher interface {
	Refresh(ctx context.Context, jobID string) (*model.AnalysisJob, error)
	ExpireJob(ctx context.Context, jobID, reason string) error
	InFlightJobs(ctx context.Context) ([]string, error)
}

// PollRecorder receives poll tick and task lifecycle events.
type PollRecorder interface {
	RecordPollTick(err error)
	PollTaskStarted()
	PollTaskStopped(outcome string)
}

type PollingLimits struct {
	Interval    time.Duration
	MaxPolls    int
	MaxDuration time.Duration
}

// PollingService owns one poller per in-flight job on this instance. Every
// task is bound to the service lifetime and cancelled on Shutdown.
type PollingService struct {
	appContext.DefaultService

	refresher JobRefresher
	recorder  PollRecorder
	limits    PollingLimits

	mu     sync.Mutex
	tasks  map[string]*poller.Poller
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const POLLING_SVC = "polling_svc"

const ceilingReason = "polling ceiling reached before the analysis settled"

func NewPollingService(refresher JobRefresher, recorder PollRecorder, limits PollingLimits) *PollingService {
	svc := &PollingService{
		refresher: refresher,
		recorder:  recorder,
		limits:    limits,
	}
	svc.init()
	return svc
}

func (svc PollingService) Id() string {
	return POLLING_SVC
}

func (svc *PollingService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()
	svc.limits = PollingLimits{
		Interval:    cfg.PollInterval,
		MaxPolls:    cfg.MaxPolls,
		MaxDuration: cfg.MaxPollDuration,
	}
	svc.init()
	return svc.DefaultService.Configure(ctx)
}

func (svc *PollingService) init() {
	if svc.tasks != nil {
		return
	}
	svc.tasks = make(map[string]*poller.Poller)
	svc.ctx, svc.cancel = context.WithCancel(context.Background())
}

func (svc *PollingService) Start() error {
	svc.refresher = svc.Service(ANALYSIS_SVC).(*AnalysisService)
	svc.recorder = svc.Service(MONITORING_SVC).(*MonitoringService)
	return svc.Resume(svc.ctx)
}

// Resume starts polling for every job left in flight by a previous run.
func (svc *PollingService) Resume(ctx context.Context) error {
	ids, err := svc.refresher.InFlightJobs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		svc.Track(id)
	}
	if len(ids) > 0 {
		log.WithField("jobs", len(ids)).Info("Resumed polling for in-flight jobs")
	}
	return nil
}

// Track starts polling jobID unless a task for it is already running.
func (svc *PollingService) Track(jobID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.ctx.Err() != nil {
		return
	}
	if existing, ok := svc.tasks[jobID]; ok {
		select {
		case <-existing.Done():
		default:
			return
		}
	}

	p := poller.New(svc.tick(jobID),
		poller.WithInterval(svc.limits.Interval),
		poller.WithMaxPolls(svc.limits.MaxPolls),
		poller.WithMaxDuration(svc.limits.MaxDuration),
		poller.WithLogger(log.WithField("job_id", jobID)),
	)
	if err := p.Start(svc.ctx); err != nil {
		log.WithFields(log.Fields{"job_id": jobID, "error": err}).Error("Failed to start poller")
		return
	}
	svc.tasks[jobID] = p
	if svc.recorder != nil {
		svc.recorder.PollTaskStarted()
	}

	svc.wg.Add(1)
	go svc.await(jobID, p)
}

// Restart replaces the task for jobID with a fresh one so that both
// ceilings count from now. The replaced task never expires the job.
func (svc *PollingService) Restart(jobID string) {
	svc.mu.Lock()
	existing, ok := svc.tasks[jobID]
	if ok {
		delete(svc.tasks, jobID)
	}
	svc.mu.Unlock()

	if ok {
		existing.Stop()
	}
	svc.Track(jobID)
}

func (svc *PollingService) tick(jobID string) poller.TickFunc {
	return func(ctx context.Context) (bool, error) {
		job, err := svc.refresher.Refresh(ctx, jobID)
		if svc.recorder != nil {
			svc.recorder.RecordPollTick(err)
		}
		if errors.Is(err, ErrJobNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return dto.AnalysisStatus(job.Status).IsTerminal(), nil
	}
}

func (svc *PollingService) await(jobID string, p *poller.Poller) {
	defer svc.wg.Done()
	<-p.Done()

	outcome := p.Outcome()
	svc.mu.Lock()
	current := svc.tasks[jobID] == p
	if current {
		delete(svc.tasks, jobID)
	}
	svc.mu.Unlock()

	if svc.recorder != nil {
		svc.recorder.PollTaskStopped(string(outcome))
	}

	// a replaced task must not expire the job its successor now polls
	if current && outcome == poller.OutcomeCeilingReached {
		if err := svc.refresher.ExpireJob(context.Background(), jobID, ceilingReason); err != nil {
			log.WithFields(log.Fields{"job_id": jobID, "error": err}).Error("Failed to expire stuck job")
		}
	}

	log.WithFields(log.Fields{
		"job_id":  jobID,
		"outcome": outcome,
		"polls":   p.Polls(),
	}).Info("Polling stopped")
}

// Active reports how many jobs are being polled.
func (svc *PollingService) Active() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.tasks)
}

func (svc *PollingService) IsTracking(jobID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, ok := svc.tasks[jobID]
	return ok
}

// Shutdown cancels every task and waits for them to exit.
func (svc *PollingService) Shutdown() {
	svc.mu.Lock()
	svc.cancel()
	tasks := make([]*poller.Poller, 0, len(svc.tasks))
	for _, p := range svc.tasks {
		tasks = append(tasks, p)
	}
	svc.mu.Unlock()

	for _, p := range tasks {
		p.Stop()
	}
	svc.wg.Wait()
}
