package standings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var alice = Participant{Name: "Alice", Handle: "tourist"}

func TestScore_WrongThenAccepted(t *testing.T) {
	c := testContest()
	subs := []Submission{
		sub(c, "A", "WRONG_ANSWER", 5*time.Minute),
		sub(c, "A", VerdictAccepted, 20*time.Minute),
	}

	got := Score(alice, subs, c)

	assert.Equal(t, ScoreRecord{Name: "Alice", Handle: "tourist", Solved: 1, Penalty: 40}, got)
}

func TestScore_SecondAcceptedIgnored(t *testing.T) {
	c := testContest()
	subs := []Submission{
		sub(c, "A", VerdictAccepted, 5*time.Minute),
		sub(c, "A", VerdictAccepted, 50*time.Minute),
		sub(c, "A", "WRONG_ANSWER", 55*time.Minute),
	}

	got := Score(alice, subs, c)

	assert.Equal(t, 1, got.Solved)
	assert.Equal(t, 5, got.Penalty)
}

func TestScore_ProblemOutsideContestIgnored(t *testing.T) {
	c := testContest()
	subs := []Submission{
		{ContestID: 1950, Index: "C", Verdict: VerdictAccepted, CreatedAt: at(c, 10*time.Minute)},
		{ContestID: 1951, Index: "A", Verdict: VerdictAccepted, CreatedAt: at(c, 10*time.Minute)},
		{ContestID: 1951, Index: "A", Verdict: "WRONG_ANSWER", CreatedAt: at(c, 11*time.Minute)},
	}

	got := Score(alice, subs, c)

	assert.Equal(t, 0, got.Solved)
	assert.Equal(t, 0, got.Penalty)
}

func TestScore_EmptyHandleIsZero(t *testing.T) {
	c := testContest()
	subs := []Submission{sub(c, "A", VerdictAccepted, time.Minute)}

	got := Score(Participant{Name: "Bob"}, subs, c)

	assert.Equal(t, ScoreRecord{Name: "Bob", Handle: NoHandle}, got)
}

func TestScore_Window(t *testing.T) {
	c := testContest()
	outside := []Submission{
		sub(c, "A", VerdictAccepted, -time.Second),
		sub(c, "A", "WRONG_ANSWER", -time.Hour),
		sub(c, "B", VerdictAccepted, 2*time.Hour+time.Second),
		sub(c, "B", "COMPILATION_ERROR", 3*time.Hour),
	}

	assert.Equal(t, ZeroRecord(alice), Score(alice, outside, c))

	inside := []Submission{sub(c, "A", VerdictAccepted, 30*time.Minute)}
	mixed := append(append([]Submission{}, outside...), inside...)
	assert.Equal(t, Score(alice, inside, c), Score(alice, mixed, c))
}

func TestScore_WindowBoundsInclusive(t *testing.T) {
	c := testContest()
	subs := []Submission{
		sub(c, "A", VerdictAccepted, 0),
		sub(c, "B", VerdictAccepted, 2*time.Hour),
	}

	got := Score(alice, subs, c)

	assert.Equal(t, 2, got.Solved)
	assert.Equal(t, 0+120, got.Penalty)
}

func TestScore_UnsolvedAttemptsStillCharged(t *testing.T) {
	c := testContest()
	subs := []Submission{
		sub(c, "A", "WRONG_ANSWER", 10*time.Minute),
		sub(c, "A", "TIME_LIMIT_EXCEEDED", 15*time.Minute),
		sub(c, "B", VerdictAccepted, 30*time.Minute),
	}

	got := Score(alice, subs, c)

	assert.Equal(t, 1, got.Solved)
	assert.Equal(t, 2*DefaultAttemptPenalty+30, got.Penalty)
}

func TestScore_PenaltyFloorsMinutes(t *testing.T) {
	c := testContest()
	subs := []Submission{sub(c, "A", VerdictAccepted, 20*time.Minute+59*time.Second)}

	assert.Equal(t, 20, Score(alice, subs, c).Penalty)
}

func TestScore_IdempotentAfterSolve(t *testing.T) {
	c := testContest()
	base := []Submission{
		sub(c, "A", "WRONG_ANSWER", 3*time.Minute),
		sub(c, "A", VerdictAccepted, 7*time.Minute),
	}
	want := Score(alice, base, c)

	verdicts := []string{VerdictAccepted, "WRONG_ANSWER", "RUNTIME_ERROR", ""}
	for _, v := range verdicts {
		t.Run("then "+v, func(t *testing.T) {
			subs := append(append([]Submission{}, base...), sub(c, "A", v, 60*time.Minute))
			assert.Equal(t, want, Score(alice, subs, c))
		})
	}
}

func TestScore_ProcessesInReceivedOrder(t *testing.T) {
	c := testContest()
	// Newest first, as the judge returns it: the accepted submission at 40m is
	// seen before the rejection at 10m, so the rejection lands on a solved
	// problem and is ignored.
	subs := []Submission{
		sub(c, "A", VerdictAccepted, 40*time.Minute),
		sub(c, "A", "WRONG_ANSWER", 10*time.Minute),
	}

	got := Score(alice, subs, c)

	assert.Equal(t, 1, got.Solved)
	assert.Equal(t, 40, got.Penalty)
}

func TestScore_CustomAttemptPenalty(t *testing.T) {
	c := testContest()
	subs := []Submission{
		sub(c, "B", "WRONG_ANSWER", time.Minute),
		sub(c, "B", VerdictAccepted, 2*time.Minute),
	}

	got := Scorer{AttemptPenalty: 10}.Score(alice, subs, c)

	assert.Equal(t, 12, got.Penalty)
}

func TestSortRecords(t *testing.T) {
	records := []ScoreRecord{
		{Name: "d", Solved: 1, Penalty: 50},
		{Name: "a", Solved: 3, Penalty: 200},
		{Name: "c", Solved: 1, Penalty: 10},
		{Name: "e", Solved: 0, Penalty: 0},
		{Name: "b", Solved: 3, Penalty: 100},
		{Name: "f", Solved: 1, Penalty: 10},
	}

	SortRecords(records)

	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"b", "a", "c", "f", "d", "e"}, names)

	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		ordered := prev.Solved > cur.Solved ||
			(prev.Solved == cur.Solved && prev.Penalty <= cur.Penalty)
		assert.True(t, ordered, "records %d and %d out of order: %+v %+v", i-1, i, prev, cur)
	}
}
