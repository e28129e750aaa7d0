package standings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errJudgeDown = errors.New("judge unavailable")

// fakeSource serves canned submission histories per handle.
type fakeSource struct {
	mu       sync.Mutex
	subs     map[string][]Submission
	errs     map[string]error
	block    map[string]bool // wait for ctx to be cancelled
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		subs:  make(map[string][]Submission),
		errs:  make(map[string]error),
		block: make(map[string]bool),
	}
}

func (f *fakeSource) UserStatus(ctx context.Context, handle string) ([]Submission, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	subs, hasSubs := f.subs[handle]
	err := f.errs[handle]
	block := f.block[handle]
	delay := f.delay
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !hasSubs {
		return []Submission{}, nil
	}
	return subs, nil
}

func (f *fakeSource) set(handle string, subs ...Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[handle] = subs
}

// fakeStore hands out copies of a contest that tests may mutate between cycles.
type fakeStore struct {
	mu      sync.Mutex
	contest *Contest
	err     error
	loads   atomic.Int32
}

func (s *fakeStore) GetContest(ctx context.Context, id string) (*Contest, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.contest == nil || s.contest.ID != id {
		return nil, ErrContestNotFound
	}
	c := *s.contest
	c.Participants = append([]Participant(nil), s.contest.Participants...)
	c.Problems = append([]ContestProblem(nil), s.contest.Problems...)
	return &c, nil
}

func (s *fakeStore) addParticipant(p Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contest.Participants = append(s.contest.Participants, p)
}

// testContest runs 10:00-12:00 UTC with problems 1950/A and 1950/B.
func testContest() *Contest {
	start := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return &Contest{
		ID:        "spring-cup",
		Name:      "Spring Cup",
		Organizer: "arena",
		Start:     start,
		End:       start.Add(2 * time.Hour),
		Problems: []ContestProblem{
			{URL: "https://codeforces.com/problemset/problem/1950/A", Name: "Dual Trigger"},
			{URL: "https://codeforces.com/problemset/problem/1950/B", Name: "Upscaling"},
		},
	}
}

func at(c *Contest, offset time.Duration) int64 {
	return c.Start.Add(offset).Unix()
}

func sub(c *Contest, index, verdict string, offset time.Duration) Submission {
	return Submission{ContestID: 1950, Index: index, Verdict: verdict, CreatedAt: at(c, offset)}
}

// pacedSource hands out one request slot every gap, like a judge rate limit.
type pacedSource struct {
	*fakeSource
	gap     time.Duration
	mu      sync.Mutex
	next    time.Time
	unpaced atomic.Int32
}

func (s *pacedSource) Wait(ctx context.Context) error {
	s.mu.Lock()
	now := time.Now()
	if s.next.Before(now) {
		s.next = now
	}
	slot := s.next
	s.next = s.next.Add(s.gap)
	s.mu.Unlock()

	select {
	case <-time.After(time.Until(slot)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *pacedSource) UserStatus(ctx context.Context, handle string) ([]Submission, error) {
	if !HasTurn(ctx) {
		s.unpaced.Add(1)
	}
	return s.fakeSource.UserStatus(ctx, handle)
}
