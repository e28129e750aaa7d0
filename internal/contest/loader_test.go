package contest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coding-arena/arena/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const springCup = `
id: spring-cup
name: Spring Cup
organizer: arena
starttime: 2025-03-14T10:00:00Z
endtime: 2025-03-14T12:00:00Z
problems:
  - url: https://codeforces.com/problemset/problem/1950/A
    name: Dual Trigger
    tags: [math, brute force]
  - url: https://codeforces.com/problemset/problem/1950/A
    name: Dual Trigger (again)
  - url: https://example.com/not-a-problem
  - url: https://example.com/gym-mirror
    contest_id: 104000
    index: C
`

const springRoster = `
- name: Alice
  email: alice@example.com
  handle: tourist
- name: Bob
`

func writeContest(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for file, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
	}
}

func TestLoadContest(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "spring", map[string]string{
		"contest.yaml":      springCup,
		"participants.yaml": springRoster,
	})

	def, err := loadContest(filepath.Join(root, "spring"))
	require.NoError(t, err)

	assert.Equal(t, "spring-cup", def.ID)
	assert.True(t, def.StartTime.Equal(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)))
	require.Len(t, def.Problems, 2)
	assert.Equal(t, "Dual Trigger", def.Problems[0].Name)
	assert.Equal(t, []string{"math", "brute force"}, def.Problems[0].Tags)
	assert.Equal(t, 104000, def.Problems[1].ContestID)
	require.Len(t, def.Participants, 2)
	assert.Equal(t, "tourist", def.Participants[0].Handle)
	assert.Empty(t, def.Participants[1].Handle)

	m := def.Model()
	assert.Equal(t, "C", m.Problems[1].JudgeIndex)
	assert.Len(t, m.Participants, 2)
}

func TestLoadContest_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing file": {},
		"end before start": {"contest.yaml": `
id: broken
name: Broken
starttime: 2025-03-14T12:00:00Z
endtime: 2025-03-14T10:00:00Z
`},
		"missing id": {"contest.yaml": `
name: No id
starttime: 2025-03-14T10:00:00Z
endtime: 2025-03-14T12:00:00Z
`},
		"bad roster email": {
			"contest.yaml": `
id: roster
name: Roster
starttime: 2025-03-14T10:00:00Z
endtime: 2025-03-14T12:00:00Z
`,
			"participants.yaml": "- name: Eve\n  email: not-an-email\n",
		},
	}

	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeContest(t, root, "c", files)
			_, err := loadContest(filepath.Join(root, "c"))
			assert.Error(t, err)
		})
	}
}

func TestLoadAll_SkipsBrokenAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "a-spring", map[string]string{"contest.yaml": springCup})
	writeContest(t, root, "b-spring-copy", map[string]string{"contest.yaml": springCup})
	writeContest(t, root, "c-broken", map[string]string{"contest.yaml": "id: [unclosed"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("ignored"), 0o644))

	dirs, err := FindContestDirs(root)
	require.NoError(t, err)
	assert.Len(t, dirs, 3)

	defs := LoadAll(dirs)
	require.Len(t, defs, 1)
	assert.Equal(t, filepath.Join(root, "a-spring"), defs[0].BasePath)
}

func TestFindContestDirs(t *testing.T) {
	dirs, err := FindContestDirs("")
	require.NoError(t, err)
	assert.Empty(t, dirs)

	_, err = FindContestDirs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSync(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "spring", map[string]string{
		"contest.yaml":      springCup,
		"participants.yaml": springRoster,
	})
	db, err := database.Init(filepath.Join(t.TempDir(), "arena.db"))
	require.NoError(t, err)

	ids, err := Sync(db, []string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"spring-cup"}, ids)

	// Loading twice replaces rather than duplicates.
	_, err = Sync(db, []string{root})
	require.NoError(t, err)

	store := database.NewStore(db)
	c, err := store.GetContest(t.Context(), "spring-cup")
	require.NoError(t, err)
	assert.Len(t, c.Problems, 2)
	assert.Len(t, c.Participants, 2)
}

func TestLoadContest_ContestPageURLNeedsStructuredPair(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "pages", map[string]string{"contest.yaml": `
id: pages
name: Contest Pages
starttime: 2025-03-14T10:00:00Z
endtime: 2025-03-14T12:00:00Z
problems:
  - url: https://codeforces.com/contest/1950/problem/A
  - url: https://codeforces.com/contest/1950/problem/B
    contest_id: 1950
    index: B
`})

	def, err := loadContest(filepath.Join(root, "pages"))
	require.NoError(t, err)
	require.Len(t, def.Problems, 1)
	assert.Equal(t, "B", def.Problems[0].Index)
}

func TestLoadContest_ShippedSeedKeepsEveryProblem(t *testing.T) {
	def, err := loadContest(filepath.Join("..", "..", "configs", "contests", "spring-cup"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join("..", "..", "configs", "contests", "spring-cup", "contest.yaml"))
	require.NoError(t, err)
	var all struct {
		Problems []Problem `yaml:"problems"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &all))

	assert.Len(t, def.Problems, len(all.Problems), "every seeded problem must be matchable")
	assert.Len(t, def.Participants, 3)
}
