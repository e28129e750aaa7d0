package standings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	DefaultSettleDelay     = 5 * time.Second
	DefaultRefreshInterval = 60 * time.Second
)

// State is the lifecycle phase of a Scheduler.
type State int

const (
	StateLoading State = iota
	StateScoring
	StateIdle
	StateEnded
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateScoring:
		return "scoring"
	case StateIdle:
		return "idle"
	case StateEnded:
		return "ended"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SchedulerConfig struct {
	SettleDelay     time.Duration
	RefreshInterval time.Duration
	Metrics         *Metrics
	// OnPublish receives every snapshot as it replaces the previous one. It
	// runs with the scheduler's lock held and must not call back into it.
	OnPublish func(*Standings)
	// OnEnded runs once when the contest end is reached. The argument is the
	// last published snapshot marked as ended, or nil if nothing was published.
	OnEnded func(*Standings)
	// Now replaces time.Now for end-of-contest checks.
	Now func() time.Time
}

// Scheduler keeps the standings of one contest fresh until the contest ends.
// The first cycle runs SettleDelay after Start and then every RefreshInterval.
type Scheduler struct {
	contestID string
	store     ContestStore
	agg       *Aggregator
	cfg       SchedulerConfig

	mu      sync.Mutex
	state   State
	end     time.Time
	cron    gocron.Scheduler
	ctx     context.Context
	cancel  context.CancelFunc
	cycles  int
	latest  atomic.Pointer[Standings]
	done    chan struct{}
	doneMux sync.Once
}

func NewScheduler(contestID string, store ContestStore, agg *Aggregator, cfg SchedulerConfig) *Scheduler {
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		contestID: contestID,
		store:     store,
		agg:       agg,
		cfg:       cfg,
		state:     StateLoading,
		done:      make(chan struct{}),
	}
}

// Start loads the contest and arms the refresh job. If the contest cannot be
// loaded the scheduler stays in StateLoading and the error is returned. A
// contest that has already ended moves straight to StateEnded without any fetch.
func (s *Scheduler) Start(ctx context.Context) error {
	contest, err := s.store.GetContest(ctx, s.contestID)
	if err != nil {
		return fmt.Errorf("load contest %s: %w", s.contestID, err)
	}

	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return fmt.Errorf("scheduler for contest %s already started", s.contestID)
	}
	s.end = contest.End

	if !s.cfg.Now().Before(contest.End) {
		s.mu.Unlock()
		zap.S().Infof("contest %s ended at %s, not scoring", s.contestID, contest.End.Format(time.RFC3339))
		s.finish()
		return nil
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create cron scheduler: %w", err)
	}

	startAt := gocron.WithStartImmediately()
	if s.cfg.SettleDelay > 0 {
		startAt = gocron.WithStartDateTime(time.Now().Add(s.cfg.SettleDelay))
	}
	_, err = cron.NewJob(
		gocron.DurationJob(s.cfg.RefreshInterval),
		gocron.NewTask(s.runCycle),
		gocron.WithName("standings:"+s.contestID),
		gocron.WithStartAt(startAt),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.mu.Unlock()
		_ = cron.Shutdown()
		return fmt.Errorf("schedule standings job: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron
	s.state = StateIdle
	s.mu.Unlock()

	cron.Start()
	zap.S().Infof("tracking standings for contest %s until %s", s.contestID, contest.End.Format(time.RFC3339))
	return nil
}

// Stop cancels pending cycles and any cycle in flight. A cycle that completes
// after Stop is discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = StateStopped
	if s.cancel != nil {
		s.cancel()
	}
	cron := s.cron
	s.cron = nil
	s.mu.Unlock()

	if cron != nil {
		if err := cron.Shutdown(); err != nil {
			zap.S().Warnf("contest %s: shutting down refresh job: %v", s.contestID, err)
		}
	}
	s.closeDone()
	zap.S().Debugf("stopped standings scheduler for contest %s (was %s)", s.contestID, prev)
}

func (s *Scheduler) runCycle() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	if !s.cfg.Now().Before(s.end) {
		s.mu.Unlock()
		s.finish()
		return
	}
	s.state = StateScoring
	ctx := s.ctx
	s.mu.Unlock()

	started := time.Now()
	result, outcome := s.cycle(ctx)
	s.cfg.Metrics.observeCycle(s.contestID, outcome, time.Since(started))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScoring {
		// stopped while the cycle was running
		return
	}
	s.state = StateIdle
	if result == nil {
		return
	}
	s.latest.Store(result)
	s.cycles++
	s.cfg.Metrics.published(s.contestID, len(result.Records))
	if s.cfg.OnPublish != nil {
		s.cfg.OnPublish(result)
	}
}

func (s *Scheduler) cycle(ctx context.Context) (*Standings, string) {
	contest, err := s.store.GetContest(ctx, s.contestID)
	if err != nil {
		zap.S().Errorf("contest %s: reloading contest failed, keeping previous standings: %v", s.contestID, err)
		return nil, "load_error"
	}

	result, err := s.agg.Aggregate(ctx, contest)
	if err != nil {
		zap.S().Infof("contest %s: scoring cycle abandoned: %v", s.contestID, err)
		return nil, "cancelled"
	}
	zap.S().Debugf("contest %s: scored %d participants", s.contestID, len(result.Records))
	return result, "published"
}

// finish moves the scheduler to StateEnded, marks the last snapshot as final
// and stops the refresh job.
func (s *Scheduler) finish() {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	var final *Standings
	if last := s.latest.Load(); last != nil {
		ended := *last
		ended.Ended = true
		s.latest.Store(&ended)
		final = &ended
	}
	if s.cancel != nil {
		s.cancel()
	}
	cron := s.cron
	s.cron = nil
	onEnded := s.cfg.OnEnded
	s.mu.Unlock()

	zap.S().Infof("contest %s has ended, standings are final", s.contestID)
	if onEnded != nil {
		onEnded(final)
	}
	s.closeDone()

	if cron != nil {
		// finish may run inside the cron task; shutting down waits for it.
		go func() {
			if err := cron.Shutdown(); err != nil {
				zap.S().Warnf("contest %s: shutting down refresh job: %v", s.contestID, err)
			}
		}()
	}
}

func (s *Scheduler) closeDone() {
	s.doneMux.Do(func() { close(s.done) })
}

// Latest returns the most recently published standings, or nil before the first cycle.
func (s *Scheduler) Latest() *Standings {
	return s.latest.Load()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cycles returns how many snapshots have been published.
func (s *Scheduler) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

func (s *Scheduler) ContestID() string {
	return s.contestID
}

// Done is closed when the scheduler reaches StateEnded or is stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
