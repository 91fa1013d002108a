// Package poller runs a cancellable fixed-interval polling task with an
// explicit start/stop lifecycle.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrAlreadyStarted = errors.New("poller already started")

// TickFunc performs one poll. done=true stops the poller with
// OutcomeCompleted. A returned error is logged and polling continues.
type TickFunc func(ctx context.Context) (done bool, err error)

type Outcome string

const (
	OutcomeRunning        Outcome = ""
	OutcomeCompleted      Outcome = "completed"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeCeilingReached Outcome = "ceiling_reached"
)

type Poller struct {
	tick        TickFunc
	interval    time.Duration
	maxPolls    int
	maxDuration time.Duration
	logger      *log.Entry

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
	polls   int
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxPolls bounds the number of ticks. Zero disables the bound.
func WithMaxPolls(n int) Option {
	return func(p *Poller) { p.maxPolls = n }
}

// WithMaxDuration bounds wall-clock time from Start. Zero disables it.
func WithMaxDuration(d time.Duration) Option {
	return func(p *Poller) { p.maxDuration = d }
}

func WithLogger(logger *log.Entry) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(tick TickFunc, opts ...Option) *Poller {
	p := &Poller{
		tick:     tick,
		interval: 5 * time.Second,
		logger:   log.NewEntry(log.StandardLogger()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls once immediately and then on every interval until the tick
// reports done, ctx is cancelled, Stop is called or a ceiling is reached.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(runCtx)
	return nil
}

// Stop cancels the task and waits for it to exit. Safe to call more than
// once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done is closed once the task has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) Outcome() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

// Polls returns how many ticks have run.
func (p *Poller) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	var deadline <-chan time.Time
	if p.maxDuration > 0 {
		timer := time.NewTimer(p.maxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	if p.poll(ctx) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.finish(OutcomeCancelled)
			return
		case <-deadline:
			p.logger.WithField("max_duration", p.maxDuration).Warn("Polling stopped: duration ceiling reached")
			p.finish(OutcomeCeilingReached)
			return
		case <-ticker.C:
			if p.poll(ctx) {
				return
			}
		}
	}
}

// poll runs one tick and reports whether the loop must stop.
func (p *Poller) poll(ctx context.Context) bool {
	if ctx.Err() != nil {
		p.finish(OutcomeCancelled)
		return true
	}

	done, err := p.tick(ctx)

	p.mu.Lock()
	p.polls++
	polls := p.polls
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			p.finish(OutcomeCancelled)
			return true
		}
		p.logger.WithFields(log.Fields{
			"poll":  polls,
			"error": err,
		}).Warn("Poll tick failed")
	} else if done {
		p.finish(OutcomeCompleted)
		return true
	}

	if p.maxPolls > 0 && polls >= p.maxPolls {
		p.logger.WithField("max_polls", p.maxPolls).Warn("Polling stopped: poll ceiling reached")
		p.finish(OutcomeCeilingReached)
		return true
	}
	return false
}

func (p *Poller) finish(outcome Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcome == OutcomeRunning {
		p.outcome = outcome
	}
}
