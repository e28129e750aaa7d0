package standings

import (
	"sort"
	"time"
)

// Scorer reduces a participant's submission history to an ICPC score record.
// The zero value charges no attempt penalty; use NewScorer for the default.
type Scorer struct {
	AttemptPenalty int
}

func NewScorer() Scorer {
	return Scorer{AttemptPenalty: DefaultAttemptPenalty}
}

// Score is Scorer.Score with the default attempt penalty.
func Score(p Participant, subs []Submission, c *Contest) ScoreRecord {
	return NewScorer().Score(p, subs, c)
}

// Score processes subs in the order given. Only submissions inside
// [c.Start, c.End] on a contest problem count, and nothing after the first
// accepted submission on a problem has any effect. Each rejected attempt is
// charged when it is seen, so attempts on problems that are never solved still
// cost penalty; the accepted submission adds the whole minutes elapsed since
// the start.
func (s Scorer) Score(p Participant, subs []Submission, c *Contest) ScoreRecord {
	record := ZeroRecord(p)
	if p.Handle == "" || c == nil {
		return record
	}

	problems := newProblemSet(c.Problems)
	solved := make(map[ProblemKey]bool)

	for _, sub := range subs {
		at := sub.Time()
		if at.Before(c.Start) || at.After(c.End) {
			continue
		}
		if !problems.contains(sub) {
			continue
		}

		key := sub.Key()
		if solved[key] {
			continue
		}

		if sub.Accepted() {
			solved[key] = true
			record.Solved++
			record.Penalty += int(at.Sub(c.Start) / time.Minute)
		} else {
			record.Penalty += s.AttemptPenalty
		}
	}
	return record
}

// SortRecords orders records by solved count descending, then penalty
// ascending. Records that tie on both keep their relative order.
func SortRecords(records []ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Solved != records[j].Solved {
			return records[i].Solved > records[j].Solved
		}
		return records[i].Penalty < records[j].Penalty
	})
}
