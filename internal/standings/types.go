// Package standings reconstructs ICPC-style contest standings from an external
// judge's submission history and keeps them refreshed while a contest runs.
package standings

import (
	"context"
	"errors"
	"time"
)

// VerdictAccepted is the judge verdict for an accepted submission. Every other
// verdict, including an empty one for submissions still being tested, counts
// as not accepted.
const VerdictAccepted = "OK"

// NoHandle is reported in place of a judge handle for participants who never set one.
const NoHandle = "N/A"

// DefaultAttemptPenalty is the number of penalty minutes charged per rejected attempt.
const DefaultAttemptPenalty = 20

var (
	ErrContestNotFound = errors.New("contest not found")
	ErrContestEnded    = errors.New("contest has ended")
	ErrNotTracked      = errors.New("contest is not tracked")
)

type Contest struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Organizer    string           `json:"organizer"`
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end"`
	Problems     []ContestProblem `json:"problems"`
	Participants []Participant    `json:"participants"`
}

// ContestProblem is a judge problem included in a contest. When JudgeContestID
// is zero the identity is derived from URL.
type ContestProblem struct {
	URL            string   `json:"url"`
	Name           string   `json:"name"`
	Tags           []string `json:"tags"`
	JudgeContestID int      `json:"judge_contest_id,omitempty"`
	JudgeIndex     string   `json:"judge_index,omitempty"`
}

// Participant is a roster entry. UserID is set for entries that belong to a
// registered account and is carried into the participant's ScoreRecord.
type Participant struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// Submission is one entry of a handle's judge submission history.
type Submission struct {
	ContestID int    `json:"contest_id"`
	Index     string `json:"index"`
	Verdict   string `json:"verdict"`
	CreatedAt int64  `json:"created_at"` // unix seconds
}

func (s Submission) Key() ProblemKey {
	return ProblemKey{ContestID: s.ContestID, Index: s.Index}
}

func (s Submission) Accepted() bool {
	return s.Verdict == VerdictAccepted
}

func (s Submission) Time() time.Time {
	return time.Unix(s.CreatedAt, 0)
}

type ScoreRecord struct {
	UserID  string `json:"user_id,omitempty"`
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Solved  int    `json:"solved"`
	Penalty int    `json:"penalty"`
}

// ZeroRecord is the record of a participant that contributes nothing this cycle.
func ZeroRecord(p Participant) ScoreRecord {
	handle := p.Handle
	if handle == "" {
		handle = NoHandle
	}
	return ScoreRecord{UserID: p.UserID, Name: p.Name, Handle: handle}
}

// Standings is an immutable, fully computed leaderboard snapshot.
type Standings struct {
	ContestID string        `json:"contest_id"`
	UpdatedAt time.Time     `json:"updated_at"`
	Ended     bool          `json:"ended"`
	Records   []ScoreRecord `json:"records"`
}

// SubmissionSource returns the full submission history of a judge handle.
type SubmissionSource interface {
	UserStatus(ctx context.Context, handle string) ([]Submission, error)
}

// Throttle is implemented by sources that pace their requests. Wait blocks
// until the next request may start.
type Throttle interface {
	Wait(ctx context.Context) error
}

type turnKey struct{}

// WithTurn marks ctx as carrying a request slot already granted by a Throttle,
// so the source must not wait for another one.
func WithTurn(ctx context.Context) context.Context {
	return context.WithValue(ctx, turnKey{}, true)
}

// HasTurn reports whether ctx was marked by WithTurn.
func HasTurn(ctx context.Context) bool {
	granted, _ := ctx.Value(turnKey{}).(bool)
	return granted
}

// ContestStore returns a contest together with its current roster.
type ContestStore interface {
	GetContest(ctx context.Context, id string) (*Contest, error)
}
