package standings

import (
	"strconv"
	"strings"
)

// ProblemKey identifies a problem in the judge's namespace.
type ProblemKey struct {
	ContestID int
	Index     string
}

// ProblemKeyFromURL extracts the key from the last two path segments of a judge
// problem URL, e.g. https://codeforces.com/problemset/problem/1950/B1 -> (1950, "B1").
// Contest-page URLs (.../contest/1950/problem/B1) end in "problem/B1" and yield
// no key; such problems need the structured pair.
func ProblemKeyFromURL(url string) (ProblemKey, bool) {
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ProblemKey{}, false
	}
	contestID, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return ProblemKey{}, false
	}
	return ProblemKey{ContestID: contestID, Index: parts[len(parts)-1]}, true
}

// Key returns the problem identity, preferring the structured pair when one is stored.
func (p ContestProblem) Key() (ProblemKey, bool) {
	if p.JudgeContestID != 0 && p.JudgeIndex != "" {
		return ProblemKey{ContestID: p.JudgeContestID, Index: p.JudgeIndex}, true
	}
	return ProblemKeyFromURL(p.URL)
}

// Matches reports whether sub was made on problem p. A problem whose identity
// cannot be derived matches nothing.
func Matches(p ContestProblem, sub Submission) bool {
	key, ok := p.Key()
	return ok && key == sub.Key()
}

// problemSet indexes a problem list by ContestProblem.Key, so contains(sub)
// holds exactly when Matches(p, sub) holds for some p in the list.
type problemSet map[ProblemKey]struct{}

func newProblemSet(problems []ContestProblem) problemSet {
	set := make(problemSet, len(problems))
	for _, p := range problems {
		if key, ok := p.Key(); ok {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s problemSet) contains(sub Submission) bool {
	_, ok := s[sub.Key()]
	return ok
}
