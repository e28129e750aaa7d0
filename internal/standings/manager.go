package standings

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Publisher fans a standings snapshot out to live consumers.
type Publisher interface {
	PublishStandings(s *Standings)
}

// ManagerConfig configures the schedulers created by a Manager.
type ManagerConfig struct {
	SettleDelay     time.Duration
	RefreshInterval time.Duration
	Metrics         *Metrics
	Publisher       Publisher
	// OnEnded runs once per contest that reaches its end while tracked.
	OnEnded func(contestID string, final *Standings)
	Now     func() time.Time
}

// TrackedContest describes a contest the Manager is scoring.
type TrackedContest struct {
	ContestID string     `json:"contest_id"`
	State     State      `json:"state"`
	Cycles    int        `json:"cycles"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Manager owns one Scheduler per tracked contest.
type Manager struct {
	sync.RWMutex
	store      ContestStore
	agg        *Aggregator
	cfg        ManagerConfig
	schedulers map[string]*Scheduler
}

func NewManager(store ContestStore, agg *Aggregator, cfg ManagerConfig) *Manager {
	return &Manager{
		store:      store,
		agg:        agg,
		cfg:        cfg,
		schedulers: make(map[string]*Scheduler),
	}
}

// Track starts scoring contestID. Tracking a contest that is already tracked
// returns the existing scheduler. Contests that have already ended are kept
// in the registry in StateEnded so their state can be queried.
func (m *Manager) Track(ctx context.Context, contestID string) (*Scheduler, error) {
	m.Lock()
	defer m.Unlock()

	if s, ok := m.schedulers[contestID]; ok && s.State() != StateStopped {
		return s, nil
	}

	s := NewScheduler(contestID, m.store, m.agg, SchedulerConfig{
		SettleDelay:     m.cfg.SettleDelay,
		RefreshInterval: m.cfg.RefreshInterval,
		Metrics:         m.cfg.Metrics,
		Now:             m.cfg.Now,
		OnPublish: func(st *Standings) {
			if m.cfg.Publisher != nil {
				m.cfg.Publisher.PublishStandings(st)
			}
		},
		OnEnded: func(final *Standings) {
			if final != nil && m.cfg.Publisher != nil {
				m.cfg.Publisher.PublishStandings(final)
			}
			if m.cfg.OnEnded != nil {
				m.cfg.OnEnded(contestID, final)
			}
		},
	})
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	m.schedulers[contestID] = s
	return s, nil
}

// Untrack stops scoring contestID and forgets it.
func (m *Manager) Untrack(contestID string) error {
	m.Lock()
	s, ok := m.schedulers[contestID]
	delete(m.schedulers, contestID)
	m.Unlock()

	if !ok {
		return ErrNotTracked
	}
	s.Stop()
	zap.S().Infof("untracked contest %s", contestID)
	return nil
}

// Standings returns the latest snapshot for contestID. The snapshot is nil
// when the contest is tracked but no cycle has completed yet.
func (m *Manager) Standings(contestID string) (*Standings, State, error) {
	m.RLock()
	s, ok := m.schedulers[contestID]
	m.RUnlock()
	if !ok {
		return nil, StateStopped, ErrNotTracked
	}
	return s.Latest(), s.State(), nil
}

// Tracked lists every contest in the registry.
func (m *Manager) Tracked() []TrackedContest {
	m.RLock()
	defer m.RUnlock()

	out := make([]TrackedContest, 0, len(m.schedulers))
	for id, s := range m.schedulers {
		tc := TrackedContest{ContestID: id, State: s.State(), Cycles: s.Cycles()}
		if latest := s.Latest(); latest != nil {
			updated := latest.UpdatedAt
			tc.UpdatedAt = &updated
		}
		out = append(out, tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContestID < out[j].ContestID })
	return out
}

// Shutdown stops every scheduler.
func (m *Manager) Shutdown() {
	m.Lock()
	schedulers := m.schedulers
	m.schedulers = make(map[string]*Scheduler)
	m.Unlock()

	for _, s := range schedulers {
		s.Stop()
	}
	zap.S().Infof("stopped %d standings schedulers", len(schedulers))
}
