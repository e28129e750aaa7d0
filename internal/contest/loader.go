// Package contest loads contest definitions from seed directories.
//
// A seed directory holds one sub-directory per contest with a contest.yaml
// and, optionally, a participants.yaml roster.
package contest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/standings"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Definition struct {
	ID           string        `yaml:"id" validate:"required"`
	Name         string        `yaml:"name" validate:"required"`
	Organizer    string        `yaml:"organizer"`
	StartTime    time.Time     `yaml:"starttime" validate:"required"`
	EndTime      time.Time     `yaml:"endtime" validate:"required,gtfield=StartTime"`
	Problems     []Problem     `yaml:"problems" validate:"dive"`
	Participants []Participant `yaml:"-" validate:"dive"`
	BasePath     string        `yaml:"-"`
}

type Problem struct {
	URL       string   `yaml:"url" validate:"required"`
	Name      string   `yaml:"name"`
	Tags      []string `yaml:"tags"`
	ContestID int      `yaml:"contest_id"`
	Index     string   `yaml:"index" validate:"required_with=ContestID"`
}

type Participant struct {
	Name   string `yaml:"name" validate:"required"`
	Email  string `yaml:"email" validate:"omitempty,email"`
	Handle string `yaml:"handle"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FindContestDirs scans a root directory and returns a slice of all its immediate subdirectories.
func FindContestDirs(rootPath string) ([]string, error) {
	if rootPath == "" {
		zap.S().Warn("contest root is not configured. No contests will be loaded.")
		return []string{}, nil
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read contest root directory '%s': %w", rootPath, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(rootPath, entry.Name()))
		}
	}
	return dirs, nil
}

// LoadAll loads every contest directory. Directories that fail to load are
// logged and skipped; the first definition of a duplicated id wins.
func LoadAll(contestDirs []string) []*Definition {
	var defs []*Definition
	seen := make(map[string]string)

	for _, dir := range contestDirs {
		def, err := loadContest(dir)
		if err != nil {
			zap.S().Warnf("failed to load contest from %s: %v", dir, err)
			continue
		}
		if first, exists := seen[def.ID]; exists {
			zap.S().Warnf("duplicate contest ID %s in %s (already loaded from %s), skipping", def.ID, dir, first)
			continue
		}
		seen[def.ID] = dir
		defs = append(defs, def)
	}
	return defs
}

func loadContest(dir string) (*Definition, error) {
	data, err := os.ReadFile(filepath.Join(dir, "contest.yaml"))
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	def.BasePath = dir

	rosterPath := filepath.Join(dir, "participants.yaml")
	if rosterData, err := os.ReadFile(rosterPath); err == nil {
		if err := yaml.Unmarshal(rosterData, &def.Participants); err != nil {
			return nil, fmt.Errorf("parse participants.yaml: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := validate.Struct(&def); err != nil {
		return nil, err
	}

	def.Problems = usableProblems(def.ID, def.Problems)
	return &def, nil
}

// usableProblems drops problems that can never match a submission and
// repeated URLs.
func usableProblems(contestID string, problems []Problem) []Problem {
	out := make([]Problem, 0, len(problems))
	seen := make(map[string]bool)
	for _, p := range problems {
		if seen[p.URL] {
			zap.S().Warnf("duplicate problem %s in contest %s, skipping", p.URL, contestID)
			continue
		}
		if p.ContestID == 0 {
			if _, ok := standings.ProblemKeyFromURL(p.URL); !ok {
				zap.S().Warnf("problem url %s in contest %s has no contest/index suffix, skipping", p.URL, contestID)
				continue
			}
		}
		seen[p.URL] = true
		out = append(out, p)
	}
	return out
}

func (d *Definition) Model() *models.Contest {
	c := &models.Contest{
		ID:        d.ID,
		Name:      d.Name,
		Organizer: d.Organizer,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
	}
	for _, p := range d.Problems {
		c.Problems = append(c.Problems, models.ContestProblem{
			URL:            p.URL,
			Name:           p.Name,
			Tags:           models.StringList(p.Tags),
			JudgeContestID: p.ContestID,
			JudgeIndex:     p.Index,
		})
	}
	for _, p := range d.Participants {
		c.Participants = append(c.Participants, models.Participant{
			Name:   p.Name,
			Email:  p.Email,
			Handle: p.Handle,
		})
	}
	return c
}

// Sync loads every contest under roots and writes them to db. It returns the
// ids of the contests written.
func Sync(db *gorm.DB, roots []string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		found, err := FindContestDirs(root)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}

	var ids []string
	for _, def := range LoadAll(dirs) {
		if err := database.UpsertContest(db, def.Model()); err != nil {
			return ids, fmt.Errorf("store contest %s: %w", def.ID, err)
		}
		ids = append(ids, def.ID)
	}
	zap.S().Infof("loaded %d contests from %d directories", len(ids), len(dirs))
	return ids, nil
}
